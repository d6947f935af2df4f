// Package metrics holds the Prometheus collectors shared by the ingestion
// pipeline. All collectors register on the default registry, which cmd/server
// exposes on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts aggregation cycles by source category and outcome
	// (ok, store_error, skipped).
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_aggregator_cycles_total",
		Help: "Aggregation cycles by source category and outcome",
	}, []string{"category", "outcome"})

	// CycleDuration observes wall time of completed aggregation cycles.
	CycleDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odds_aggregator_cycle_duration_seconds",
		Help:    "Duration of aggregation cycles",
		Buckets: prometheus.DefBuckets,
	}, []string{"category"})

	// AdapterErrors counts failed or timed-out adapter fetches per source.
	AdapterErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_aggregator_adapter_errors_total",
		Help: "Adapter fetch failures by source",
	}, []string{"source_id"})

	// RecordsDropped counts raw records dropped during normalization by
	// reason (unresolved, ambiguous, invalid_price, stale).
	RecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "odds_aggregator_records_dropped_total",
		Help: "Raw records dropped during normalization by reason",
	}, []string{"reason"})

	// QuotesAggregated counts quotes that made it into an aggregation pass.
	QuotesAggregated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odds_aggregator_quotes_aggregated_total",
		Help: "Quotes consumed by the aggregation engine",
	})

	// SnapshotAppendFailures counts failed snapshot appends.
	SnapshotAppendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odds_aggregator_snapshot_append_failures_total",
		Help: "Snapshot store append failures",
	})
)
