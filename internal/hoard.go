// Package hoard defines domain types and interfaces for the hoard cache
// engine. This package has no project imports -- it is the dependency root.
package hoard

import (
	"context"
	"encoding/json"
	"time"
)

// --- Strategies ---

// Strategy selects how a Fetch call combines the cache with the origin.
type Strategy string

const (
	// CacheFirst returns a live cached value, falling back to the origin
	// (and storing the result) only on a miss.
	CacheFirst Strategy = "cache-first"
	// NetworkFirst tries the origin first and falls back to the cache when
	// the origin is unavailable.
	NetworkFirst Strategy = "network-first"
	// StaleWhileRevalidate serves cached data immediately while refreshing
	// it from the origin in the background.
	StaleWhileRevalidate Strategy = "stale-while-revalidate"
	// CacheOnly never contacts the origin.
	CacheOnly Strategy = "cache-only"
	// NetworkOnly bypasses the cache entirely, in both directions.
	NetworkOnly Strategy = "network-only"
)

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case CacheFirst, NetworkFirst, StaleWhileRevalidate, CacheOnly, NetworkOnly:
		return true
	}
	return false
}

// FetchOptions configure a single engine Fetch call. Options are immutable
// per call; there is no global default strategy.
type FetchOptions struct {
	Strategy Strategy
	// Key is the cache key the fetched document lives under.
	Key string
	// TTL overrides the store default when positive.
	TTL time.Duration
	// Headers are merged over the fetcher's defaults; they win on conflict.
	Headers map[string]string
}

// --- Origin ---

// Document is a JSON payload fetched from the origin, together with the
// validator headers the origin sent along.
type Document struct {
	Data         json.RawMessage
	ETag         string
	LastModified string
}

// Fetcher retrieves JSON documents from the origin. Implementations must
// treat any non-2xx response and any malformed body as an error.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (*Document, error)
}

// --- Stats ---

// Stats is a point-in-time snapshot of cache effectiveness. MemoryBytes is
// a rough, monotonic-with-size estimate meant for dashboards.
type Stats struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	HitRatio    float64 `json:"hit_ratio"`
	Size        int     `json:"size"`
	MemoryBytes int64   `json:"memory_bytes"`
}

// --- Preload ---

// PreloadEntry names one URL to warm into the cache ahead of demand.
type PreloadEntry struct {
	URL string        `json:"url"  yaml:"url"`
	Key string        `json:"key"  yaml:"key"`
	TTL time.Duration `json:"ttl"  yaml:"ttl"`
}

// --- Error sink ---

// ErrorSink receives failures that the engine swallows. The engine never
// returns errors to callers; the sink is the only place they surface.
// Implementations must be safe for concurrent use.
type ErrorSink func(op, key string, err error)

// --- Context keys ---

type contextKey int

const ctxKeyMeta contextKey = 0

// requestMeta bundles per-request values into a single context allocation.
type requestMeta struct {
	RequestID string
}

func metaFromContext(ctx context.Context) *requestMeta {
	m, _ := ctx.Value(ctxKeyMeta).(*requestMeta)
	return m
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if m := metaFromContext(ctx); m != nil {
		return m.RequestID
	}
	return ""
}

// ContextWithRequestID returns a context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyMeta, &requestMeta{RequestID: id})
}
