package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestRequestID(t *testing.T) {
	cases := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "absent", header: "", keep: false},
		{name: "client id", header: "req-42", keep: true},
		{name: "uuid", header: "0b7c9a8e-6f1d-4d5e-9a3b-2c1f0e9d8c7b", keep: true},
		{name: "log injection", header: "abc\n level=ERROR msg=forged", keep: false},
		{name: "too long", header: strings.Repeat("a", maxRequestIDLen+1), keep: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set(RequestIDHeader, tc.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
			if tc.keep {
				assert.Equal(t, tc.header, seen)
			} else {
				assert.NotEqual(t, tc.header, seen)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	t.Run("panic becomes a JSON 500", func(t *testing.T) {
		h := Recovery(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("nil credential data")
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/users/credentials", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_error", errorCode(t, w))
	})

	t.Run("abort is re-raised", func(t *testing.T) {
		h := Recovery(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))
		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

type latencyRecorder struct{ endpoints []string }

func (l *latencyRecorder) ObserveEndpointLatency(endpoint string, _ float64) {
	l.endpoints = append(l.endpoints, endpoint)
}

func TestAccess(t *testing.T) {
	var logs bytes.Buffer
	rec := &latencyRecorder{}
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Access(slog.New(slog.NewJSONHandler(&logs, nil)), rec))
	r.Use(Recovery(discard))
	r.Get("/api/users/{address}/did", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hasDid":false}`))
	})
	r.Post("/api/users/verify", func(http.ResponseWriter, *http.Request) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/api/users/0xabc/did", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/users/verify", nil))

	assert.Equal(t, []string{"GET /api/users/{address}/did", "POST /api/users/verify"}, rec.endpoints)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 2)
	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "INFO", first["level"])
	assert.Equal(t, "req-1", first["request_id"])
	assert.Equal(t, float64(200), first["status"])
	assert.Equal(t, float64(len(`{"hasDid":false}`)), first["bytes"])
	assert.Equal(t, "ERROR", second["level"])
	assert.Equal(t, float64(500), second["status"])
}

func TestAccessWithoutObserver(t *testing.T) {
	h := Access(discard, nil)(http.HandlerFunc(ok))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTimeoutAnswersJSON(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	h := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/users/issue-kyc", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "timeout", errorCode(t, w))
}

func TestContentTypeJSON(t *testing.T) {
	cases := map[string]int{
		"application/json":                  http.StatusOK,
		"application/json; charset=utf-8":   http.StatusOK,
		"":                                  http.StatusOK,
		"text/plain":                        http.StatusUnsupportedMediaType,
		"application/x-www-form-urlencoded": http.StatusUnsupportedMediaType,
	}
	for ct, want := range cases {
		t.Run(ct, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
			if ct != "" {
				req.Header.Set("Content-Type", ct)
			}
			w := httptest.NewRecorder()
			ContentTypeJSON(http.HandlerFunc(ok)).ServeHTTP(w, req)
			assert.Equal(t, want, w.Code)
			if want != http.StatusOK {
				assert.Equal(t, "invalid_content_type", errorCode(t, w))
			}
		})
	}
}

func TestRequireAdminToken(t *testing.T) {
	cases := []struct {
		name     string
		expected string
		given    string
		want     int
	}{
		{"matching token", "s3cret", "s3cret", http.StatusOK},
		{"wrong token", "s3cret", "guess", http.StatusUnauthorized},
		{"prefix of token", "s3cret", "s3c", http.StatusUnauthorized},
		{"missing token", "s3cret", "", http.StatusUnauthorized},
		{"unconfigured token rejects all", "", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/users/credentials/0x01/revoke", nil)
			if tc.given != "" {
				req.Header.Set("X-Admin-Token", tc.given)
			}
			w := httptest.NewRecorder()
			RequireAdminToken(tc.expected, discard)(http.HandlerFunc(ok)).ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusUnauthorized {
				assert.Equal(t, "unauthorized", errorCode(t, w))
			}
		})
	}
}
