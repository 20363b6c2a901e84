// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "growthlab_upstream_requests_total",
		Help: "Platform API calls by method and response status.",
	}, []string{"method", "status"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "growthlab_upstream_duration_seconds",
		Help:    "Latency of platform API calls.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "growthlab_cache_lookups_total",
		Help: "Response cache lookups by result (hit, miss).",
	}, []string{"result"})

	FallbackServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "growthlab_fallback_served_total",
		Help: "Degraded-mode fixture responses by endpoint family.",
	}, []string{"family"})

	AuthResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "growthlab_auth_resolutions_total",
		Help: "Inbound auth context resolutions by outcome.",
	}, []string{"outcome"})

	BridgeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "growthlab_widget_bridge_connections",
		Help: "Open widget bridge WebSocket connections.",
	})
)
