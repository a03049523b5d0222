package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes recorded per Move function.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the application level Prometheus metrics.
type Metrics struct {
	SubjectsRegistered prometheus.Counter
	DIDsProvisioned    prometheus.Counter
	CredentialsIssued  prometheus.Counter
	CredentialsRevoked prometheus.Counter
	SchemasCreated     prometheus.Counter
	Verifications      *prometheus.CounterVec

	ChainSubmissions  *prometheus.CounterVec
	ChainSubmitTime   *prometheus.HistogramVec
	ChainReadFailures prometheus.Counter

	EndpointLatency *prometheus.HistogramVec
}

// New creates application metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SubjectsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_subjects_registered_total",
			Help: "Total number of subjects registered",
		}),
		DIDsProvisioned: f.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_dids_provisioned_total",
			Help: "Total number of DID objects created on chain",
		}),
		CredentialsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_credentials_issued_total",
			Help: "Total number of KYC credentials issued on chain",
		}),
		CredentialsRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_credentials_revoked_total",
			Help: "Total number of mirror records revoked",
		}),
		SchemasCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_schemas_created_total",
			Help: "Total number of credential schemas created on chain",
		}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_verifications_total",
			Help: "Verification requests labeled by outcome (granted, denied)",
		}, []string{"outcome"}),
		ChainSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kycgate_chain_submissions_total",
			Help: "Transactions submitted to the ledger, labeled by Move function and outcome",
		}, []string{"function", "outcome"}),
		ChainSubmitTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kycgate_chain_submit_duration_seconds",
			Help:    "Time from transaction build to local execution",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"function"}),
		ChainReadFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "kycgate_chain_read_failures_total",
			Help: "Object reads that failed and were treated as absent",
		}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kycgate_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) IncSubjectsRegistered() { m.SubjectsRegistered.Inc() }
func (m *Metrics) IncDIDsProvisioned()    { m.DIDsProvisioned.Inc() }
func (m *Metrics) IncCredentialsIssued()  { m.CredentialsIssued.Inc() }
func (m *Metrics) IncCredentialsRevoked() { m.CredentialsRevoked.Inc() }
func (m *Metrics) IncSchemasCreated()     { m.SchemasCreated.Inc() }
func (m *Metrics) IncChainReadFailures()  { m.ChainReadFailures.Inc() }

// IncVerification records a verification outcome.
func (m *Metrics) IncVerification(outcome string) {
	m.Verifications.WithLabelValues(outcome).Inc()
}

// ObserveSubmission records a ledger submission for function.
func (m *Metrics) ObserveSubmission(function, outcome string, seconds float64) {
	m.ChainSubmissions.WithLabelValues(function, outcome).Inc()
	m.ChainSubmitTime.WithLabelValues(function).Observe(seconds)
}

func (m *Metrics) ObserveEndpointLatency(endpoint string, seconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(seconds)
}

// Handler exposes metrics gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
