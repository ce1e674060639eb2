package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/eugener/hoard/internal/cache"
	"github.com/eugener/hoard/internal/circuitbreaker"
)

const (
	defaultCleanupInterval = time.Minute
	breakerStaleAfter      = time.Hour
)

// Janitor periodically sweeps expired entries out of the cache. Reads
// already evict lazily; the sweep keeps never-read entries from piling up.
// It also drops circuit breakers for hosts nothing has fetched in a while.
type Janitor struct {
	engine   *cache.Engine
	breakers *circuitbreaker.Registry
	interval time.Duration
}

// NewJanitor creates a Janitor sweeping at the given interval. A nil breaker
// registry is fine; only the cache is swept then.
func NewJanitor(engine *cache.Engine, breakers *circuitbreaker.Registry, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = defaultCleanupInterval
	}
	return &Janitor{engine: engine, breakers: breakers, interval: interval}
}

// Name returns the worker identifier.
func (j *Janitor) Name() string { return "janitor" }

// Run sweeps until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := j.engine.Cleanup(); removed > 0 {
				slog.LogAttrs(ctx, slog.LevelInfo, "cleanup swept expired entries",
					slog.Int("removed", removed),
					slog.Int("remaining", j.engine.Size()),
				)
			}
			if j.breakers != nil {
				j.breakers.EvictStale(time.Now().Add(-breakerStaleAfter))
			}
		case <-ctx.Done():
			return nil
		}
	}
}
