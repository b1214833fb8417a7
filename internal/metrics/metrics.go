package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks the number of outbound fetches per feed and term.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_feed_fetches_total",
			Help: "Total number of feed fetches (by feed and result).",
		},
		[]string{"feed", "result"}, // result = "ok" | "error"
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricewatch_feed_fetch_duration_seconds",
			Help:    "Duration of feed fetches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"feed"},
	)

	// Tracks records fetched per feed before filtering.
	RecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_records_fetched_total",
			Help: "Records returned by feeds before filtering.",
		},
		[]string{"feed"},
	)

	// Tracks records dropped by the validity filter, by reason.
	FilterDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_filter_dropped_total",
			Help: "Records dropped by the validity filter.",
		},
		[]string{"reason"}, // "price_ceiling" | "contradiction"
	)

	// Tracks rows persisted per table.
	RowsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_rows_persisted_total",
			Help: "Rows committed to the store.",
		},
		[]string{"table"}, // "products" | "quotes"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricewatch_run_duration_seconds",
			Help:    "Duration of a full pipeline run.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// Gauges the last successful run time (seconds since epoch).
	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pricewatch_last_run_timestamp",
			Help: "Timestamp (unix seconds) of the last completed pipeline run.",
		},
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricewatch_errors_total",
			Help: "Count of component-level errors.",
		},
		[]string{"component", "reason"},
	)
)

// IncError increments the aggregated error counter.
func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}

// ObserveFetch records one feed fetch with its outcome and latency.
func ObserveFetch(feed string, start time.Time, err error) {
	FetchDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	FetchesTotal.WithLabelValues(feed, result).Inc()
}
