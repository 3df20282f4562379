// Package metrics exposes Prometheus counters for the application vertical.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for loan application operations.
// A nil *Metrics is safe: every method no-ops, so tests can pass nil.
type Metrics struct {
	ApplicationsSubmitted prometheus.Counter
	TransitionsApplied    *prometheus.CounterVec
	TransitionsRejected   prometheus.Counter
	ConflictRetries       prometheus.Counter
	RiskScoreDistribution prometheus.Histogram
}

// New creates and registers all collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		ApplicationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loan_applications_submitted_total",
			Help: "Total number of loan applications submitted",
		}),
		TransitionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "loan_application_transitions_total",
			Help: "Lifecycle transitions applied, labelled by transition",
		}, []string{"transition"}),
		TransitionsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loan_application_transitions_rejected_total",
			Help: "Transitions rejected by the state machine or role checks",
		}),
		ConflictRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "loan_application_conflict_retries_total",
			Help: "Compare-and-set conflicts that triggered a retry",
		}),
		RiskScoreDistribution: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "loan_application_risk_score",
			Help:    "Distribution of computed aggregate risk scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}
}

func (m *Metrics) IncSubmitted() {
	if m != nil {
		m.ApplicationsSubmitted.Inc()
	}
}

func (m *Metrics) IncTransition(transition string) {
	if m != nil {
		m.TransitionsApplied.WithLabelValues(transition).Inc()
	}
}

func (m *Metrics) IncTransitionRejected() {
	if m != nil {
		m.TransitionsRejected.Inc()
	}
}

func (m *Metrics) IncConflictRetry() {
	if m != nil {
		m.ConflictRetries.Inc()
	}
}

func (m *Metrics) ObserveRiskScore(score int) {
	if m != nil {
		m.RiskScoreDistribution.Observe(float64(score))
	}
}
