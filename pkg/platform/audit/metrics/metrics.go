package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the audit publisher. Counters are labelled by action.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	Overflow        prometheus.Counter
	PersistDuration prometheus.Histogram
	PersistFailures *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Emitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_audit_events_emitted_total",
			Help: "Audit events accepted by the publisher",
		}, []string{"action"}),
		Overflow: f.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_audit_buffer_overflow_total",
			Help: "Audit events persisted on the request path because the async buffer was full",
		}),
		PersistDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycgate_audit_persist_duration_seconds",
			Help:    "Time to append one audit event to the store",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		PersistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_audit_persist_failures_total",
			Help: "Audit events the store refused",
		}, []string{"action"}),
	}
}

func (m *Metrics) IncEmitted(action string) {
	m.Emitted.WithLabelValues(action).Inc()
}

func (m *Metrics) IncOverflow() {
	m.Overflow.Inc()
}

func (m *Metrics) ObservePersist(seconds float64) {
	m.PersistDuration.Observe(seconds)
}

func (m *Metrics) IncPersistFailures(action string) {
	m.PersistFailures.WithLabelValues(action).Inc()
}
