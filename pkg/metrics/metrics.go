// Package metrics declares this service's Prometheus gauges/counters via
// promauto (automatic registration against the default registry),
// grounded on the teacher's pkg/metrics/metrics.go shape: one var block of
// declarations plus a handful of Record* helpers that pipeline/scheduler/
// httpapi call directly rather than touching prometheus types themselves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// --- Pipeline run metrics ---

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total pipeline runs by type and status",
		},
		[]string{"run_type", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobradar",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Pipeline run wall-clock duration",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68m
		},
		[]string{"run_type"},
	)

	JobsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "pipeline",
			Name:      "jobs_found_total",
			Help:      "Raw postings seen, by source",
		},
		[]string{"source"},
	)

	JobsNew = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "pipeline",
			Name:      "jobs_new_total",
			Help:      "Canonical jobs inserted (post-dedup), by source",
		},
		[]string{"source"},
	)

	JobsDuplicate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "pipeline",
			Name:      "jobs_duplicate_total",
			Help:      "Postings recognized as duplicates, by source",
		},
		[]string{"source"},
	)

	// --- Connector metrics ---

	ConnectorFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "connectors",
			Name:      "fetches_total",
			Help:      "Connector fetch attempts by source and outcome",
		},
		[]string{"source", "outcome"}, // outcome: success | error | rate_limited
	)

	ConnectorResponseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jobradar",
			Subsystem: "connectors",
			Name:      "response_time_ms",
			Help:      "Connector fetch response time in milliseconds",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12), // 10ms to ~40s
		},
		[]string{"source"},
	)

	// --- LLM fit analyzer metrics ---

	FitAnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "llm",
			Name:      "fit_analyses_total",
			Help:      "Fit analyses attempted, by outcome",
		},
		[]string{"outcome"}, // outcome: success | fallback | failed
	)

	LLMPoolWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jobradar",
			Subsystem: "llm",
			Name:      "pool_wait_seconds",
			Help:      "Time spent waiting for a free API key in the pool",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// --- Notifier metrics ---

	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "notifier",
			Name:      "sent_total",
			Help:      "Notifier sends by kind and outcome",
		},
		[]string{"kind", "outcome"}, // kind: alert | digest | system
	)

	RetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jobradar",
			Subsystem: "notifier",
			Name:      "retry_queue_depth",
			Help:      "Items currently queued for retried delivery",
		},
	)

	// --- Scheduler metrics ---

	SchedulerSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jobradar",
			Subsystem: "scheduler",
			Name:      "skips_total",
			Help:      "Ticks skipped by run type because the single-flight guard was already held",
		},
		[]string{"run_type"},
	)
)

// RecordRun records a finished pipeline run's status and duration.
func RecordRun(runType, status string, durationSeconds float64) {
	RunsTotal.WithLabelValues(runType, status).Inc()
	RunDuration.WithLabelValues(runType).Observe(durationSeconds)
}

// RecordFetch records one connector fetch outcome and its latency.
func RecordFetch(source, outcome string, responseTimeMs int64) {
	ConnectorFetches.WithLabelValues(source, outcome).Inc()
	ConnectorResponseTime.WithLabelValues(source).Observe(float64(responseTimeMs))
}

// RecordFitAnalysis records one Analyze() outcome.
func RecordFitAnalysis(outcome string) {
	FitAnalysesTotal.WithLabelValues(outcome).Inc()
}

// RecordSend records one notifier delivery attempt.
func RecordSend(kind, outcome string) {
	AlertsSent.WithLabelValues(kind, outcome).Inc()
}

// RecordSchedulerSkip records a tick skipped because the single-flight
// guard was already held.
func RecordSchedulerSkip(runType string) {
	SchedulerSkipsTotal.WithLabelValues(runType).Inc()
}
