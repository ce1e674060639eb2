// Package testutil provides configurable test fakes for hoard interfaces.
package testutil

import (
	"context"
	"sync"

	hoard "github.com/eugener/hoard/internal"
)

// FakeFetcher is a configurable hoard.Fetcher for testing. It records every
// call so tests can assert on fetch counts and order.
type FakeFetcher struct {
	// FetchFn handles calls when non-nil; otherwise a fixed document is
	// returned.
	FetchFn func(ctx context.Context, url string, headers map[string]string) (*hoard.Document, error)

	mu   sync.Mutex
	urls []string
}

var _ hoard.Fetcher = (*FakeFetcher)(nil)

// Fetch records the call and delegates to FetchFn or a default document.
func (f *FakeFetcher) Fetch(ctx context.Context, url string, headers map[string]string) (*hoard.Document, error) {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()

	if f.FetchFn != nil {
		return f.FetchFn(ctx, url, headers)
	}
	return &hoard.Document{Data: []byte(`{"ok":true}`)}, nil
}

// Calls returns how many times Fetch was invoked.
func (f *FakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.urls)
}

// URLs returns the fetched URLs in call order.
func (f *FakeFetcher) URLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.urls))
	copy(out, f.urls)
	return out
}
