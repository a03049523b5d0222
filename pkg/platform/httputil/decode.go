package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"kycgate/internal/platform/middleware"
	dErrors "kycgate/pkg/domain-errors"
)

// MaxBodySize caps request bodies. Credential payloads are a handful of short strings.
const MaxBodySize = 64 * 1024

// Sanitizable request types trim their fields before validation.
type Sanitizable interface {
	Sanitize()
}

// Validatable request types report missing or malformed fields.
type Validatable interface {
	Validate() error
}

// Decode reads one JSON object from the request body into a new T, then
// sanitizes and validates it. On failure the error response is already
// written and ok is false.
//
//	req, ok := httputil.Decode[models.VerifyRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (req *T, ok bool) {
	req = new(T)
	if err := readBody(w, r, req); err != nil {
		reject(w, r, logger, "rejected request body", err)
		return nil, false
	}
	if err := prepare(req); err != nil {
		reject(w, r, logger, "invalid request", err)
		return nil, false
	}
	return req, true
}

func readBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	err := dec.Decode(dst)

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	case errors.As(err, &tooLarge):
		return dErrors.New(dErrors.CodeBadRequest, "request body too large")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	case dec.More():
		return dErrors.New(dErrors.CodeBadRequest, "request body must hold a single JSON object")
	}
	return nil
}

func prepare(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	v, ok := req.(Validatable)
	if !ok {
		return nil
	}
	err := v.Validate()
	if err == nil {
		return nil
	}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return dErrors.New(dErrors.CodeValidation, err.Error())
}

func reject(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	ctx := r.Context()
	logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"path", r.URL.Path,
		"error", err,
	)
	WriteError(w, err)
}
