package worker

import (
	"context"
	"time"

	"github.com/rs/dnscache"
)

const defaultDNSRefresh = 5 * time.Minute

// DNSRefresher periodically refreshes the fetcher's cached DNS entries so
// a long-lived daemon tracks origin failovers.
type DNSRefresher struct {
	resolver *dnscache.Resolver
	interval time.Duration
}

// NewDNSRefresher creates a DNSRefresher for resolver.
func NewDNSRefresher(resolver *dnscache.Resolver, interval time.Duration) *DNSRefresher {
	if interval <= 0 {
		interval = defaultDNSRefresh
	}
	return &DNSRefresher{resolver: resolver, interval: interval}
}

// Name returns the worker identifier.
func (d *DNSRefresher) Name() string { return "dns_refresher" }

// Run refreshes until ctx is cancelled.
func (d *DNSRefresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// true also drops entries no longer in use.
			d.resolver.Refresh(true)
		case <-ctx.Done():
			return nil
		}
	}
}
