package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedOperations counts feed service calls by operation and outcome code.
	FeedOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedhub_feed_operations_total",
		Help: "Total feed service operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedhub_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// FeedEventsPublished counts realtime feed events by type.
	FeedEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedhub_feed_events_published_total",
		Help: "Total feed events published to subscribers",
	}, []string{"event_type"})

	// WebSocketConnections is the gauge of live feed stream clients.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "feedhub_websocket_connections",
		Help: "Number of active feed stream WebSocket connections",
	})

	// WebSocketBackpressureDrops counts events dropped because a client could not keep up.
	WebSocketBackpressureDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedhub_websocket_backpressure_drops_total",
		Help: "Total feed events dropped due to slow WebSocket clients",
	})
)

// RecordFeedOperation counts one feed service call. outcome is "ok" or an error code.
func RecordFeedOperation(operation, outcome string) {
	FeedOperations.WithLabelValues(operation, outcome).Inc()
}
