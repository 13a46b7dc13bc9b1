// Package metrics provides Prometheus metrics for the console sync engine
// (event stream + query cache + REST boundary). Scrapeable on the local
// /metrics endpoint; dashboards and alerting rely on these names.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reachforge"

var (
	// EventsReceivedTotal counts decoded stream events by name.
	EventsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Total number of decoded event-stream frames by event name.",
		},
		[]string{"event"},
	)

	// EventsDroppedTotal counts frames rejected by the decoder.
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of malformed or unknown frames dropped at the transport boundary.",
		},
		[]string{"event"},
	)

	// SocketState is the current connection state (0 disconnected, 1 connecting, 2 connected, 3 errored).
	SocketState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "socket_state",
			Help:      "Event stream connection state: 0=disconnected 1=connecting 2=connected 3=errored.",
		},
	)

	// SocketReconnectsTotal counts automatic reconnection attempts.
	SocketReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_reconnects_total",
			Help:      "Total number of automatic reconnection attempts.",
		},
	)

	// SubscriptionsActive is the number of live event-handler registrations.
	SubscriptionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions_active",
			Help:      "Number of live event subscriptions.",
		},
	)

	// CacheHitsTotal counts fresh cache reads served without a fetch.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_hits_total",
			Help:      "Total number of query cache hits.",
		},
	)

	// CacheMissesTotal counts reads that triggered a fetch.
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_misses_total",
			Help:      "Total number of query cache misses.",
		},
	)

	// CacheInvalidationsTotal counts entries marked stale by pattern, by resource group.
	CacheInvalidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_invalidations_total",
			Help:      "Total number of cache entries invalidated, by resource group.",
		},
		[]string{"group"},
	)

	// CacheRefetchesTotal counts background refetches triggered by invalidation.
	CacheRefetchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_refetches_total",
			Help:      "Total number of background refetches of observed keys.",
		},
	)

	// APIRequestDurationSeconds is REST request latency by method and outcome.
	APIRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Backend REST request duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
		},
		[]string{"method", "status"},
	)

	// ToastsPresentedTotal counts notifications handed to the presenter, by severity.
	ToastsPresentedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toasts_presented_total",
			Help:      "Total number of notifications presented, by severity.",
		},
		[]string{"severity"},
	)
)
