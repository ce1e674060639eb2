// Package telemetry provides observability primitives for the hoard cache
// engine.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the daemon.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveRequests  prometheus.Gauge
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	CacheExpired    prometheus.Counter
	FetchDuration   prometheus.Histogram
	FetchErrors     prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hoard",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "hoard",
			Name:                            "request_duration_seconds",
			Help:                            "HTTP request duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hoard",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hoard",
			Name:      "cache_hits_total",
			Help:      "Total cache hits.",
		}),

		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hoard",
			Name:      "cache_misses_total",
			Help:      "Total cache misses.",
		}),

		CacheExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hoard",
			Name:      "cache_expired_total",
			Help:      "Total entries removed because their TTL ran out.",
		}),

		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:                       "hoard",
			Name:                            "fetch_duration_seconds",
			Help:                            "Origin fetch duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}),

		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hoard",
			Name:      "fetch_errors_total",
			Help:      "Total failed origin fetches.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.CacheHits,
		m.CacheMisses,
		m.CacheExpired,
		m.FetchDuration,
		m.FetchErrors,
	)

	return m
}

// CacheMetrics bridges cache lifecycle events onto the Prometheus
// collectors. It satisfies the cache package's Metrics interface.
type CacheMetrics struct {
	m *Metrics
}

// NewCacheMetrics wraps m for use by the cache store.
func NewCacheMetrics(m *Metrics) *CacheMetrics {
	return &CacheMetrics{m: m}
}

func (c *CacheMetrics) Hit()     { c.m.CacheHits.Inc() }
func (c *CacheMetrics) Miss()    { c.m.CacheMisses.Inc() }
func (c *CacheMetrics) Expired() { c.m.CacheExpired.Inc() }
