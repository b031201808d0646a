package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the audit stream mirror.
type Metrics struct {
	Published      prometheus.Counter
	PublishErrors  prometheus.Counter
	BreakerDropped prometheus.Counter
	BreakerState   prometheus.Gauge
	QueueDropped   prometheus.Counter
}

// NewMetrics registers the stream metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "minbar_audit_stream_published_total",
			Help: "Audit entries mirrored to the stream",
		}),
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "minbar_audit_stream_publish_errors_total",
			Help: "Audit entries the stream rejected",
		}),
		BreakerDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "minbar_audit_stream_breaker_dropped_total",
			Help: "Audit entries not mirrored because the stream breaker was open",
		}),
		BreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "minbar_audit_stream_breaker_state",
			Help: "Stream breaker state (0=closed, 1=open)",
		}),
		QueueDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "minbar_audit_stream_queue_dropped_total",
			Help: "Audit entries not mirrored because the publish queue was full",
		}),
	}
}

func (m *Metrics) setBreakerState(open bool) {
	if open {
		m.BreakerState.Set(1)
		return
	}
	m.BreakerState.Set(0)
}
