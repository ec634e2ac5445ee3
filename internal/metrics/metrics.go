package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workflowOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equb_workflow_operations_total",
			Help: "Reservation workflow operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	workflowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "equb_workflow_duration_seconds",
			Help:    "Duration of reservation workflow transactions",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
		[]string{"operation"},
	)

	boardCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equb_board_cache_requests_total",
			Help: "Ticket board cache lookups by result",
		},
		[]string{"result"},
	)

	compensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equb_receipt_compensations_total",
			Help: "Receipt deletes issued after a failed or superseded write",
		},
		[]string{"outcome"},
	)

	activityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "equb_activity_events_total",
			Help: "Activity feed events by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)
)

// Outcome labels used across the workflow.
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeForbidden   = "forbidden"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

func ObserveOperation(operation, outcome string, started time.Time) {
	workflowOperations.WithLabelValues(operation, outcome).Inc()
	workflowDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func BoardCacheHit()   { boardCache.WithLabelValues("hit").Inc() }
func BoardCacheMiss()  { boardCache.WithLabelValues("miss").Inc() }
func BoardCacheError() { boardCache.WithLabelValues("error").Inc() }

func Compensation(ok bool) {
	if ok {
		compensations.WithLabelValues(OutcomeOK).Inc()
		return
	}
	compensations.WithLabelValues(OutcomeError).Inc()
}

func ActivityEvent(stage string, ok bool) {
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeError
	}
	activityEvents.WithLabelValues(stage, outcome).Inc()
}
