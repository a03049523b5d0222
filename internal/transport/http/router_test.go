package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycgate/internal/chain/sui"
)

type registrarFunc func(r chi.Router)

func (f registrarFunc) Register(r chi.Router) { f(r) }

type latencyRecorder struct {
	mu        sync.Mutex
	endpoints []string
}

func (l *latencyRecorder) ObserveEndpointLatency(endpoint string, _ float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.endpoints = append(l.endpoints, endpoint)
}

func newTestRouter(latency *latencyRecorder) http.Handler {
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	return NewRouter(Config{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Latency: latency,
		Health:  registrarFunc(func(r chi.Router) { r.Get("/health", ok) }),
		Metrics: http.HandlerFunc(ok),
		Users: []Registrar{
			registrarFunc(func(r chi.Router) { r.Post("/register", ok) }),
			registrarFunc(func(r chi.Router) { r.Get("/{address}/credentials", ok) }),
		},
	})
}

func serve(h http.Handler, method, path, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	t.Run("mounts user routes under the api prefix", func(t *testing.T) {
		router := newTestRouter(&latencyRecorder{})
		assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/users/register", "application/json").Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/users/0xabc/credentials", "").Code)
		assert.Equal(t, http.StatusNotFound, serve(router, http.MethodPost, "/register", "application/json").Code)
	})

	t.Run("health and metrics sit outside the api prefix", func(t *testing.T) {
		router := newTestRouter(&latencyRecorder{})
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/metrics", "").Code)
	})

	t.Run("rejects non JSON bodies on api routes", func(t *testing.T) {
		router := newTestRouter(&latencyRecorder{})
		w := serve(router, http.MethodPost, "/api/users/register", "text/plain")
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("assigns a request id", func(t *testing.T) {
		router := newTestRouter(&latencyRecorder{})
		w := serve(router, http.MethodGet, "/health", "")
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("records latency by route pattern", func(t *testing.T) {
		latency := &latencyRecorder{}
		router := newTestRouter(latency)
		serve(router, http.MethodGet, "/api/users/0xabc/credentials", "")
		serve(router, http.MethodGet, "/api/users/0xdef/credentials", "")

		require.Len(t, latency.endpoints, 2)
		assert.Equal(t, "GET /api/users/{address}/credentials", latency.endpoints[0])
		assert.Equal(t, latency.endpoints[0], latency.endpoints[1])
	})
}

func TestRequestTimeoutOutlastsSchemaAndIssueSubmissions(t *testing.T) {
	// create_schema and issue_vc each need a build and an execute call
	assert.Greater(t, DefaultRequestTimeout, 4*sui.DefaultTimeout)
}
