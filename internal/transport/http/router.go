package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kycgate/internal/chain/sui"
	"kycgate/internal/platform/middleware"
)

// UsersPrefix is where subject, DID and credential routes are mounted.
const UsersPrefix = "/api/users"

// issuanceRoundTrips is the worst case of sequential RPC calls behind one
// issuance: a schema lookup, then build and execute for create_schema and
// again for issue_vc.
const issuanceRoundTrips = 5

// DefaultRequestTimeout bounds API requests. It outlasts every RPC of an
// issuance timing out in turn, so the transport timeout is what fails a
// request, never the route.
const DefaultRequestTimeout = issuanceRoundTrips * sui.DefaultTimeout

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// Config describes what NewRouter mounts.
type Config struct {
	Logger         *slog.Logger
	Latency        middleware.LatencyObserver
	RequestTimeout time.Duration
	// Health is mounted at the root, outside the API timeout and content type checks.
	Health  Registrar
	Metrics http.Handler
	// Users are mounted under UsersPrefix in order.
	Users []Registrar
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	// Access sits outside Recovery so a recovered panic is logged as a 500
	r.Use(middleware.Access(cfg.Logger, cfg.Latency))
	r.Use(middleware.Recovery(cfg.Logger))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	r.Route(UsersPrefix, func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Use(middleware.ContentTypeJSON)
		for _, reg := range cfg.Users {
			reg.Register(r)
		}
	})

	return r
}
