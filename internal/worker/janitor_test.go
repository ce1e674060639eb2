package worker

import (
	"context"
	"testing"
	"time"

	hoard "github.com/eugener/hoard/internal"
	"github.com/eugener/hoard/internal/cache"
	"github.com/eugener/hoard/internal/testutil"
)

func newTestEngine(t *testing.T, f hoard.Fetcher) *cache.Engine {
	t.Helper()
	store, err := cache.NewStore(time.Minute, nil)
	if err != nil {
		t.Fatal(err)
	}
	return cache.NewEngine(store, f, func(string, string, error) {})
}

func TestJanitorSweepsExpired(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, &testutil.FakeFetcher{})
	engine.Set("short", []byte(`1`), time.Millisecond)
	engine.Set("long", []byte(`2`), time.Hour)

	j := NewJanitor(engine, nil, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for engine.Size() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if engine.Size() != 1 {
		t.Errorf("size = %d, want 1 after sweep", engine.Size())
	}
	if !engine.Has("long") {
		t.Error("live entry should survive the sweep")
	}
}

func TestPreloaderWarmsCache(t *testing.T) {
	t.Parallel()
	engine := newTestEngine(t, &testutil.FakeFetcher{})
	entries := []hoard.PreloadEntry{
		{URL: "http://origin/a", Key: "a"},
		{URL: "http://origin/b", Key: "b", TTL: time.Hour},
	}

	p := NewPreloader(engine, entries, nil)
	if err := p.Run(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !engine.Has("a") || !engine.Has("b") {
		t.Errorf("keys = %v, want a and b cached", engine.Keys())
	}
}

func TestPreloaderEmptyIsNoop(t *testing.T) {
	t.Parallel()
	f := &testutil.FakeFetcher{}
	engine := newTestEngine(t, f)

	p := NewPreloader(engine, nil, nil)
	if err := p.Run(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Calls() != 0 {
		t.Errorf("calls = %d, want 0", f.Calls())
	}
}
