package ratings

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plateful_aggregate_sync_failures_total",
		Help: "Aggregate writes that failed after a review mutation or during reconciliation.",
	})

	reconcileRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "plateful_reconcile_runs_total",
		Help: "Reconciliation passes by outcome.",
	}, []string{"status"})

	reconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "plateful_reconcile_duration_seconds",
		Help:    "Wall time of full reconciliation passes.",
		Buckets: prometheus.DefBuckets,
	})
)
