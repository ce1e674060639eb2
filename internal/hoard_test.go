package hoard

import (
	"context"
	"testing"
)

func TestStrategyValid(t *testing.T) {
	t.Parallel()

	for _, s := range []Strategy{CacheFirst, NetworkFirst, StaleWhileRevalidate, CacheOnly, NetworkOnly} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []Strategy{"", "cache_first", "networkfirst", "swr"} {
		if s.Valid() {
			t.Errorf("%q should not be valid", s)
		}
	}
}

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("empty context request ID = %q, want empty", got)
	}

	ctx = ContextWithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("request ID = %q, want %q", got, "req-123")
	}
}
