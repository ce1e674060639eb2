package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/dnscache"

	"github.com/eugener/hoard/internal/cache"
	"github.com/eugener/hoard/internal/circuitbreaker"
	"github.com/eugener/hoard/internal/config"
	"github.com/eugener/hoard/internal/fetcher"
	"github.com/eugener/hoard/internal/server"
	"github.com/eugener/hoard/internal/telemetry"
	"github.com/eugener/hoard/internal/worker"
)

func run(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slog.Info("starting hoard", "version", version, "addr", cfg.Server.Addr)

	ctx := context.Background()

	// Tracing
	if cfg.Telemetry.Tracing.Enabled {
		shutdown, err := telemetry.SetupTracing(ctx, cfg.Telemetry.Tracing.Endpoint, cfg.Telemetry.Tracing.SampleRate)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	// Metrics
	var (
		registry *prometheus.Registry
		metrics  *telemetry.Metrics
	)
	if cfg.Telemetry.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = telemetry.NewMetrics(registry)
	}

	// Cache store and engine
	var cacheMetrics cache.Metrics
	if metrics != nil {
		cacheMetrics = telemetry.NewCacheMetrics(metrics)
	}
	store, err := cache.NewStore(cfg.Cache.DefaultTTL, cacheMetrics)
	if err != nil {
		return err
	}

	// Origin fetcher
	resolver := &dnscache.Resolver{}
	breakers := circuitbreaker.NewRegistry(circuitbreaker.DefaultConfig())
	client := &http.Client{
		Transport: fetcher.NewTransport(resolver),
		Timeout:   cfg.Origin.Timeout,
	}
	opts := []fetcher.Option{
		fetcher.WithBaseHeaders(cfg.Origin.Headers),
		fetcher.WithBreakers(breakers),
	}
	if a := cfg.Origin.Auth; a != nil {
		opts = append(opts, fetcher.WithClientCredentials(a.TokenURL, a.ClientID, a.ClientSecret, a.Scopes))
	}
	if metrics != nil {
		opts = append(opts, fetcher.WithMetrics(metrics))
	}
	origin := fetcher.New(client, opts...)

	engine := cache.NewEngine(store, origin, nil)

	// Create HTTP server
	handler := server.New(server.Deps{
		Engine:   engine,
		Metrics:  metrics,
		Registry: registry,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	runner := worker.NewRunner(
		worker.NewJanitor(engine, breakers, cfg.Cache.CleanupInterval),
		worker.NewDNSRefresher(resolver, cfg.Origin.DNSRefresh),
		worker.NewPreloader(engine, cfg.Preload, cfg.Origin.Headers),
	)
	workerErrCh := make(chan error, 1)
	go func() {
		if err := runner.Run(workerCtx); err != nil {
			workerErrCh <- err
		}
		close(workerErrCh)
	}()

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("hoard ready", "addr", cfg.Server.Addr)

	// Wait for signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig)
	case err := <-errCh:
		return err
	case err := <-workerErrCh:
		return err
	}

	// Shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	stopWorkers()
	<-workerErrCh

	slog.Info("hoard stopped")
	return nil
}
