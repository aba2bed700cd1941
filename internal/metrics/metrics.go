package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnswersRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circular_answers_recorded_total",
			Help: "Total number of answers recorded, by theme and action (set, clear)",
		},
		[]string{"theme", "action"},
	)

	AnswersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circular_answers_rejected_total",
			Help: "Total number of answers rejected by catalog validation",
		},
		[]string{"reason"},
	)

	SnapshotsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "circular_snapshots_saved_total",
			Help: "Total number of assessments appended to history",
		},
	)

	SnapshotsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "circular_snapshots_failed_total",
			Help: "Total number of history appends that failed",
		},
	)

	Evaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circular_evaluations_total",
			Help: "Total number of score evaluations, by maturity level",
		},
		[]string{"maturity"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "circular_evaluation_duration_seconds",
			Help:    "Duration of a full score evaluation in seconds",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "circular_sessions_active",
			Help: "Number of assessment sessions currently held by this instance",
		},
	)

	SessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "circular_sessions_expired_total",
			Help: "Total number of sessions removed by the cleanup worker",
		},
	)
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
