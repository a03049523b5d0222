package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks how audit events move from the outbox to Kafka.
type Metrics struct {
	Backlog        prometheus.Gauge
	Published      *prometheus.CounterVec
	Failures       prometheus.Counter
	Purged         prometheus.Counter
	PublishSeconds prometheus.Histogram
	ClaimSize      prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Backlog: f.NewGauge(prometheus.GaugeOpts{
			Name: "kycgate_audit_outbox_backlog",
			Help: "Audit events queued but not yet published",
		}),
		Published: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_audit_outbox_published_total",
			Help: "Audit events published to Kafka, by action",
		}, []string{"action"}),
		Failures: f.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_audit_outbox_failures_total",
			Help: "Failed outbox claims and publish attempts",
		}),
		Purged: f.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_audit_outbox_purged_total",
			Help: "Published audit events removed after the retention period",
		}),
		PublishSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycgate_audit_outbox_publish_seconds",
			Help:    "Time until Kafka acknowledged one audit event",
			Buckets: prometheus.ExponentialBuckets(0.001, 2.5, 9),
		}),
		ClaimSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "kycgate_audit_outbox_claim_size",
			Help:    "Entries leased per non-empty claim",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9),
		}),
	}
}

func (m *Metrics) SetBacklog(n int64) { m.Backlog.Set(float64(n)) }
func (m *Metrics) IncPublished(action string) { m.Published.WithLabelValues(action).Inc() }
func (m *Metrics) IncFailures() { m.Failures.Inc() }
func (m *Metrics) AddPurged(n int64) { m.Purged.Add(float64(n)) }
func (m *Metrics) ObservePublish(seconds float64) { m.PublishSeconds.Observe(seconds) }
func (m *Metrics) ObserveClaim(n int) { m.ClaimSize.Observe(float64(n)) }
