// Package health serves /health, /health/live and /health/ready.
//
// Readiness fails only on critical dependencies (database, redis, chain RPC). A
// non-critical dependency that is down, such as Kafka behind the audit
// outbox, marks the service degraded but keeps it in rotation.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"kycgate/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

type CheckFunc func(ctx context.Context) error

// checkTimeout bounds each check so a hung RPC node cannot stall readiness.
const checkTimeout = 3 * time.Second

type dependency struct {
	name     string
	check    CheckFunc
	critical bool
}

type Handler struct {
	started     time.Time
	environment string
	now         func() time.Time

	mu   sync.RWMutex
	deps []dependency
}

func New(environment string) *Handler {
	return &Handler{
		started:     time.Now(),
		environment: environment,
		now:         time.Now,
	}
}

// RegisterCheck adds a critical dependency. Registering a name twice
// replaces the earlier check.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.register(dependency{name: name, check: check, critical: true})
}

// RegisterOptionalCheck adds a dependency whose failure degrades the
// service without failing readiness.
func (h *Handler) RegisterOptionalCheck(name string, check CheckFunc) {
	h.register(dependency{name: name, check: check})
}

func (h *Handler) register(dep dependency) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.deps {
		if h.deps[i].name == dep.name {
			h.deps[i] = dep
			return
		}
	}
	h.deps = append(h.deps, dep)
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// CheckResult is one dependency's outcome in a readiness response.
type CheckResult struct {
	Status    string `json:"status"`
	Critical  bool   `json:"critical"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type ReadinessResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// HandleReadiness answers 503 when a critical dependency is down and 200
// otherwise.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := h.Ready(r.Context())
	status := http.StatusOK
	if resp.Status == StatusNotReady {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, resp)
}

// Ready runs every registered check concurrently.
func (h *Handler) Ready(ctx context.Context) ReadinessResponse {
	h.mu.RLock()
	deps := append([]dependency(nil), h.deps...)
	h.mu.RUnlock()

	results := make([]CheckResult, len(deps))
	var g errgroup.Group
	for i, dep := range deps {
		g.Go(func() error {
			results[i] = run(ctx, dep)
			return nil
		})
	}
	_ = g.Wait()

	resp := ReadinessResponse{Status: StatusReady, Checks: make(map[string]CheckResult, len(deps))}
	for i, dep := range deps {
		res := results[i]
		resp.Checks[dep.name] = res
		if res.Status == "up" {
			continue
		}
		if dep.critical {
			resp.Status = StatusNotReady
		} else if resp.Status == StatusReady {
			resp.Status = StatusDegraded
		}
	}
	return resp
}

func run(ctx context.Context, dep dependency) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := dep.check(ctx)
	res := CheckResult{
		Status:    "up",
		Critical:  dep.critical,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		res.Status = "down"
		res.Error = err.Error()
	}
	return res
}

type StatusResponse struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	Environment   string   `json:"environment"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Timestamp     string   `json:"timestamp"`
	Dependencies  []string `json:"dependencies"`
}

// HandleStatus reports build and uptime details without running checks.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	names := make([]string, 0, len(h.deps))
	for _, dep := range h.deps {
		names = append(names, dep.name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	now := h.now()
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		Environment:   h.environment,
		UptimeSeconds: int64(now.Sub(h.started).Seconds()),
		Timestamp:     now.UTC().Format(time.RFC3339),
		Dependencies:  names,
	})
}
