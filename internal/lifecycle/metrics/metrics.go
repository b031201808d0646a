package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the admin lifecycle engine.
type Metrics struct {
	Operations         *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	Conflicts          *prometheus.CounterVec
	Bans               prometheus.Counter
	RevocationFailures prometheus.Counter
}

// New registers the lifecycle metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "minbar_lifecycle_operations_total",
			Help: "Lifecycle operations by action and outcome code",
		}, []string{"action", "code"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minbar_lifecycle_operation_duration_seconds",
			Help:    "Duration of lifecycle operations including the audit write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"action"}),
		Conflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "minbar_lifecycle_conflicts_total",
			Help: "Optimistic concurrency conflicts by action and whether the retry resolved them",
		}, []string{"action", "resolved"}),
		Bans: f.NewCounter(prometheus.CounterOpts{
			Name: "minbar_lifecycle_bans_total",
			Help: "Accounts banned after reaching the rejection limit",
		}),
		RevocationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "minbar_lifecycle_session_revocation_failures_total",
			Help: "Session revocations that failed after an admin left the approved state",
		}),
	}
}

// ObserveOperation records one finished operation. code is empty on success.
func (m *Metrics) ObserveOperation(action, code string, start time.Time) {
	if code == "" {
		code = "ok"
	}
	m.Operations.WithLabelValues(action, code).Inc()
	m.OperationDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncConflict(action string, resolved bool) {
	label := "false"
	if resolved {
		label = "true"
	}
	m.Conflicts.WithLabelValues(action, label).Inc()
}

func (m *Metrics) IncBan() {
	m.Bans.Inc()
}

func (m *Metrics) IncRevocationFailure() {
	m.RevocationFailures.Inc()
}
