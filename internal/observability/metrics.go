// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability defines the Prometheus metrics for the
// discovery pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for providers,
// aggregation, and the result cache.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,timeout,rate_limited,provider_error}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	CacheLookups     *prometheus.CounterVec   // labels: result={hit,miss}
	CacheEvictions   prometheus.Counter
	DiscoverDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "provider_requests_total",
			Help:      "Provider fetches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "waypoint",
			Name:      "provider_duration_seconds",
			Help:      "Provider fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by hit or miss.",
		}, []string{"result"}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "waypoint",
			Name:      "cache_evictions_total",
			Help:      "Result cache entries evicted by capacity pressure.",
		}),
		DiscoverDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "waypoint",
			Name:      "discover_duration_seconds",
			Help:      "End-to-end discovery duration including cache and merge.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 20},
		}),
	}
}

// NewMetrics creates the pipeline metrics and registers them with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.CacheLookups,
		m.CacheEvictions,
		m.DiscoverDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
