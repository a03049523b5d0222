package idempotency

import (
	"bytes"
	"log/slog"
	"net/http"

	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/platform/httputil"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"
	maxKeyLength   = 255
)

// Middleware replays completed responses for a repeated Idempotency-Key on
// the same path. Requests without the header pass through. Server errors are
// not cached so the client may retry them.
func Middleware(store Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(HeaderKey)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(header) > maxKeyLength {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "idempotency key too long"))
				return
			}

			ctx := r.Context()
			key := r.Method + " " + r.URL.Path + " " + header

			if replayed := replay(w, r, store, key, logger); replayed {
				return
			}

			reserved, err := store.Reserve(ctx, key)
			if err != nil {
				logger.WarnContext(ctx, "idempotency store unavailable, processing without replay protection", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !reserved {
				if replay(w, r, store, key, logger) {
					return
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "a request with this idempotency key is in progress"))
				return
			}
			defer func() {
				if err := store.Release(ctx, key); err != nil {
					logger.WarnContext(ctx, "failed to release idempotency key", "error", err)
				}
			}()

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusInternalServerError {
				return
			}
			var body []byte
			if rec.body.Len() > 0 {
				body = rec.body.Bytes()
			}
			if err := store.Set(ctx, key, &CachedResponse{StatusCode: rec.status, Body: body}); err != nil {
				logger.WarnContext(ctx, "failed to cache idempotent response", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, store Store, key string, logger *slog.Logger) bool {
	cached, err := store.Get(r.Context(), key)
	if err != nil {
		logger.WarnContext(r.Context(), "failed to read idempotent response", "error", err)
		return false
	}
	if cached == nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(HeaderReplayed, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
	return true
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
