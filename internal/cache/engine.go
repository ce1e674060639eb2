package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	hoard "github.com/eugener/hoard/internal"
)

// preloadConcurrency bounds parallel origin fetches during a warmup batch.
const preloadConcurrency = 8

// Engine composes the store with an origin fetcher and implements the
// fetch strategies. Its Fetch surface never returns an error: every failure
// degrades to (nil, false) plus a report through the error sink, so callers
// that only want best-effort data cannot crash on origin trouble.
type Engine struct {
	store   *Store
	fetcher hoard.Fetcher
	sink    hoard.ErrorSink
	tracer  trace.Tracer
}

// NewEngine creates an Engine. A nil sink falls back to slog.
func NewEngine(store *Store, fetcher hoard.Fetcher, sink hoard.ErrorSink) *Engine {
	if sink == nil {
		sink = logSink
	}
	return &Engine{
		store:   store,
		fetcher: fetcher,
		sink:    sink,
		tracer:  otel.Tracer("hoard/cache"),
	}
}

// logSink is the default error sink; failures the engine swallows still
// leave a trace in the log.
func logSink(op, key string, err error) {
	slog.LogAttrs(context.Background(), slog.LevelWarn, "cache operation failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// Fetch resolves url through the strategy in opts.
func (e *Engine) Fetch(ctx context.Context, url string, opts hoard.FetchOptions) (json.RawMessage, bool) {
	ctx, span := e.tracer.Start(ctx, "cache.Fetch", trace.WithAttributes(
		attribute.String("cache.strategy", string(opts.Strategy)),
		attribute.String("cache.key", opts.Key),
	))
	defer span.End()

	switch opts.Strategy {
	case hoard.CacheFirst:
		return e.cacheFirst(ctx, url, opts)
	case hoard.NetworkFirst:
		return e.networkFirst(ctx, url, opts)
	case hoard.StaleWhileRevalidate:
		return e.staleWhileRevalidate(ctx, url, opts)
	case hoard.CacheOnly:
		return e.store.Get(opts.Key)
	case hoard.NetworkOnly:
		return e.networkOnly(ctx, url, opts)
	default:
		e.sink("fetch", opts.Key, fmt.Errorf("%w: %q", hoard.ErrUnknownStrategy, opts.Strategy))
		return nil, false
	}
}

func (e *Engine) cacheFirst(ctx context.Context, url string, opts hoard.FetchOptions) (json.RawMessage, bool) {
	if data, ok := e.store.Get(opts.Key); ok {
		return data, true
	}
	doc, err := e.fetcher.Fetch(ctx, url, opts.Headers)
	if err != nil {
		e.sink("cache-first", opts.Key, err)
		return nil, false
	}
	e.store.SetDocument(opts.Key, doc, opts.TTL)
	return doc.Data, true
}

func (e *Engine) networkFirst(ctx context.Context, url string, opts hoard.FetchOptions) (json.RawMessage, bool) {
	doc, err := e.fetcher.Fetch(ctx, url, opts.Headers)
	if err == nil {
		e.store.SetDocument(opts.Key, doc, opts.TTL)
		return doc.Data, true
	}
	e.sink("network-first", opts.Key, err)
	// Fall back through the regular Get, so the usual liveness check
	// applies and an expired entry does not resurrect here.
	return e.store.Get(opts.Key)
}

func (e *Engine) staleWhileRevalidate(ctx context.Context, url string, opts hoard.FetchOptions) (json.RawMessage, bool) {
	data, ok := e.store.Get(opts.Key)

	// Detached refresh. It runs regardless of the cache outcome and writes
	// through the store mutex (last write wins). The caller's cancellation
	// must not abort it, but request-scoped values stay visible to the sink.
	go e.revalidate(context.WithoutCancel(ctx), url, opts)

	if ok {
		return data, true
	}

	// Cold cache: block on our own origin call. The detached refresh above
	// is a second, independent request; it is the one that populates the
	// store.
	doc, err := e.fetcher.Fetch(ctx, url, opts.Headers)
	if err != nil {
		e.sink("stale-while-revalidate", opts.Key, err)
		return nil, false
	}
	return doc.Data, true
}

func (e *Engine) revalidate(ctx context.Context, url string, opts hoard.FetchOptions) {
	doc, err := e.fetcher.Fetch(ctx, url, opts.Headers)
	if err != nil {
		e.sink("revalidate", opts.Key, err)
		return
	}
	e.store.SetDocument(opts.Key, doc, opts.TTL)
}

func (e *Engine) networkOnly(ctx context.Context, url string, opts hoard.FetchOptions) (json.RawMessage, bool) {
	doc, err := e.fetcher.Fetch(ctx, url, opts.Headers)
	if err != nil {
		e.sink("network-only", opts.Key, err)
		return nil, false
	}
	return doc.Data, true
}

// Preload concurrently fetches all entries and stores successes under their
// paired key and TTL. Per-entry failures go to the sink and never abort the
// batch; Preload returns once every entry has been attempted.
func (e *Engine) Preload(ctx context.Context, entries []hoard.PreloadEntry, headers map[string]string) {
	var g errgroup.Group
	g.SetLimit(preloadConcurrency)
	for _, ent := range entries {
		g.Go(func() error {
			doc, err := e.fetcher.Fetch(ctx, ent.URL, headers)
			if err != nil {
				e.sink("preload", ent.Key, err)
				return nil
			}
			e.store.SetDocument(ent.Key, doc, ent.TTL)
			return nil
		})
	}
	// Goroutines always return nil; Wait only synchronizes.
	_ = g.Wait()
}

// --- Store surface ---
//
// The engine re-exports the store operations so callers hold a single
// public API for both strategies and direct cache access.

// Get returns the cached payload for key, counting a hit or miss.
func (e *Engine) Get(key string) (json.RawMessage, bool) { return e.store.Get(key) }

// GetDocument is Get with validator headers included.
func (e *Engine) GetDocument(key string) (*hoard.Document, bool) { return e.store.GetDocument(key) }

// Set stores data under key; a non-positive ttl uses the default.
func (e *Engine) Set(key string, data json.RawMessage, ttl time.Duration) {
	e.store.Set(key, data, ttl)
}

// Has reports liveness without touching the hit/miss counters.
func (e *Engine) Has(key string) bool { return e.store.Has(key) }

// Delete removes key, reporting whether an entry was present.
func (e *Engine) Delete(key string) bool { return e.store.Delete(key) }

// Clear removes all entries and resets the counters.
func (e *Engine) Clear() { e.store.Clear() }

// Keys returns an unfiltered key snapshot.
func (e *Engine) Keys() []string { return e.store.Keys() }

// Size returns the raw entry count.
func (e *Engine) Size() int { return e.store.Size() }

// Stats returns a snapshot of the cache counters and footprint.
func (e *Engine) Stats() hoard.Stats { return e.store.Stats() }

// Cleanup sweeps expired entries, returning the number removed.
func (e *Engine) Cleanup() int { return e.store.Cleanup() }

// InvalidatePattern removes keys matching the regex pattern.
func (e *Engine) InvalidatePattern(pattern string) (int, error) {
	return e.store.InvalidatePattern(pattern)
}

// SetDefaultTTL changes the default TTL for subsequent writes.
func (e *Engine) SetDefaultTTL(d time.Duration) { e.store.SetDefaultTTL(d) }

// DefaultTTL returns the current default TTL.
func (e *Engine) DefaultTTL() time.Duration { return e.store.DefaultTTL() }
