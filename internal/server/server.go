// Package server implements the HTTP transport layer over the cache engine.
// The engine itself stays an in-process library; this surface is one of its
// consumers.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eugener/hoard/internal/cache"
	"github.com/eugener/hoard/internal/telemetry"
)

// ReadyChecker reports whether the system is ready to serve traffic.
type ReadyChecker func(ctx context.Context) error

// Deps holds all dependencies for the HTTP server.
type Deps struct {
	Engine     *cache.Engine
	ReadyCheck ReadyChecker         // nil = always ready (for tests)
	Metrics    *telemetry.Metrics   // nil = no request metrics
	Registry   *prometheus.Registry // nil = no /metrics endpoint
}

// New creates an http.Handler with all routes and middleware wired.
func New(deps Deps) http.Handler {
	s := &server{deps: deps}

	r := chi.NewRouter()

	// Global middleware
	r.Use(s.recovery)
	r.Use(s.requestID)
	r.Use(s.logging)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	// System endpoints
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Cache API
	r.Route("/v1", func(r chi.Router) {
		r.Get("/cache", s.handleKeys)
		r.Delete("/cache", s.handleClear)
		r.Get("/cache/{key}", s.handleGet)
		r.Head("/cache/{key}", s.handleHas)
		r.Put("/cache/{key}", s.handlePut)
		r.Delete("/cache/{key}", s.handleDelete)

		r.Get("/stats", s.handleStats)
		r.Post("/fetch", s.handleFetch)
		r.Post("/cleanup", s.handleCleanup)
		r.Post("/invalidate", s.handleInvalidate)
		r.Post("/preload", s.handlePreload)

		r.Get("/config/ttl", s.handleGetTTL)
		r.Put("/config/ttl", s.handleSetTTL)
	})

	return r
}

type server struct {
	deps Deps
}
