package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AIRequestsTotal counts calls to the AI collaborator by operation and outcome.
	AIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestash_ai_requests_total",
		Help: "Total number of AI collaborator requests by operation and outcome",
	}, []string{"operation", "outcome"})

	// PhotoUploadsTotal counts photo upload attempts by outcome.
	PhotoUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestash_photo_uploads_total",
		Help: "Total number of photo upload attempts by outcome",
	}, []string{"outcome"})

	// ExportsTotal counts inventory exports by format.
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestash_exports_total",
		Help: "Total number of inventory exports by format",
	}, []string{"format"})

	// ItemEventsTotal counts published inventory change events by action.
	ItemEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "homestash_item_events_total",
		Help: "Total number of inventory change events by action",
	}, []string{"action"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "homestash_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
