package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "govscore_events_enqueued_total",
		Help: "Total number of events placed on the processing queue.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "govscore_events_dropped_total",
		Help: "Total number of events rejected due to a full queue.",
	})

	// EventsProcessed distinguishes the terminal states of the pipeline:
	// applied, duplicate (expected idempotent outcome, still a success),
	// retryable and terminal failures.
	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govscore_events_processed_total",
		Help: "Total number of events processed, labelled by kind and outcome.",
	}, []string{"kind", "outcome"})

	ScoreDeltaApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "govscore_score_delta_applied_total",
		Help: "Sum-friendly count of score mutations, labelled by kind and tier.",
	}, []string{"kind", "tier"})

	EventProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "govscore_event_processing_duration_ms",
		Help:    "End-to-end event processing latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "govscore_queue_utilization_ratio",
		Help: "Current event queue utilization (0–1).",
	})

	RuleTableReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "govscore_rule_table_reloads_total",
		Help: "Total number of rule table swaps.",
	})
)
