package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// CacheLookups counts cache reads by layer (l1, l2, resolver) and result (hit, miss, error).
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_cache_lookups_total",
			Help: "Cache lookups by layer and result.",
		},
		[]string{"layer", "result"},
	)

	// Resolutions counts successful resolver calls by operation and the layer that answered.
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_resolutions_total",
			Help: "Resolver outcomes by operation and source.",
		},
		[]string{"operation", "source"},
	)

	// InsertConflicts counts inserts rejected by the durable store's unique constraints.
	InsertConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortener_insert_conflicts_total",
			Help: "Inserts rejected with a unique conflict.",
		},
	)

	// EventsConsumed counts analytics messages by topic and outcome (ok, retry, dropped).
	EventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortener_events_consumed_total",
			Help: "Consumed analytics events by topic and outcome.",
		},
		[]string{"topic", "outcome"},
	)

	// HTTPRequests counts served requests by method, route template and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route template.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Register adds all collectors to reg. Only the first call has an effect.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(
			CacheLookups,
			Resolutions,
			InsertConflicts,
			EventsConsumed,
			HTTPRequests,
			HTTPRequestDuration,
		)
	})
}
