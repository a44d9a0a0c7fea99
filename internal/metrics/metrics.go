// Package metrics exposes Prometheus collectors for session convergence,
// registered against the default registry and served by internal/api's
// /metrics route.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wfm_sessions_active",
		Help: "Number of sessions currently ACTIVE.",
	})

	Reconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wfm_reconciliations_total",
			Help: "Total number of session convergence passes.",
		},
		[]string{"result"},
	)

	ReconciliationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "wfm_reconciliation_duration_seconds",
		Help:    "Duration of a single session convergence pass.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(SessionsActive, Reconciliations, ReconciliationDuration)
}
