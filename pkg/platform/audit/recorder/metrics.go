package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Recorded        *prometheus.CounterVec
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics registers the recorder metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Recorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "minbar_audit_entries_recorded_total",
			Help: "Audit entries persisted, by action and outcome",
		}, []string{"action", "outcome"}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "minbar_audit_persist_failures_total",
			Help: "Audit entries that could not be persisted",
		}),
		PersistDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "minbar_audit_persist_duration_seconds",
			Help:    "Time spent persisting one audit entry",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
	}
}
