package worker

import (
	"context"
	"log/slog"

	hoard "github.com/eugener/hoard/internal"
	"github.com/eugener/hoard/internal/cache"
)

// Preloader warms the cache once at startup from configured entries, then
// exits. Per-entry failures are the engine's business; the batch itself
// never fails.
type Preloader struct {
	engine  *cache.Engine
	entries []hoard.PreloadEntry
	headers map[string]string
}

// NewPreloader creates a Preloader for the given entries.
func NewPreloader(engine *cache.Engine, entries []hoard.PreloadEntry, headers map[string]string) *Preloader {
	return &Preloader{engine: engine, entries: entries, headers: headers}
}

// Name returns the worker identifier.
func (p *Preloader) Name() string { return "preloader" }

// Run performs the warmup batch and returns.
func (p *Preloader) Run(ctx context.Context) error {
	if len(p.entries) == 0 {
		return nil
	}
	p.engine.Preload(ctx, p.entries, p.headers)
	slog.LogAttrs(ctx, slog.LevelInfo, "preload finished",
		slog.Int("requested", len(p.entries)),
		slog.Int("cached", p.engine.Size()),
	)
	return nil
}
