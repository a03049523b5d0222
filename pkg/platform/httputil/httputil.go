// Package httputil writes JSON responses and decodes JSON requests for the
// HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "kycgate/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response) // status already sent
}

// ErrorResponse is the body of every error answer.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

type mapping struct {
	status int
	wire   string
}

// mappings lists every code with a non-500 status or its own wire name.
// Ledger codes keep their name so callers know which transaction failed.
var mappings = map[dErrors.Code]mapping{
	dErrors.CodeNotFound:        {http.StatusNotFound, "not_found"},
	dErrors.CodeBadRequest:      {http.StatusBadRequest, "bad_request"},
	dErrors.CodeValidation:      {http.StatusBadRequest, "validation_error"},
	dErrors.CodeConflict:        {http.StatusConflict, "conflict"},
	dErrors.CodeUnauthorized:    {http.StatusUnauthorized, "unauthorized"},
	dErrors.CodeTimeout:         {http.StatusGatewayTimeout, "timeout"},
	dErrors.CodeChainSubmission: {http.StatusInternalServerError, string(dErrors.CodeChainSubmission)},
	dErrors.CodeSchemaCreation:  {http.StatusInternalServerError, string(dErrors.CodeSchemaCreation)},
	dErrors.CodeDIDCreation:     {http.StatusInternalServerError, string(dErrors.CodeDIDCreation)},
	dErrors.CodeVCIssuance:      {http.StatusInternalServerError, string(dErrors.CodeVCIssuance)},
}

func lookup(code dErrors.Code) mapping {
	if m, ok := mappings[code]; ok {
		return m
	}
	return mapping{http.StatusInternalServerError, "internal_error"}
}

// DomainCodeToHTTPStatus maps a domain code to its HTTP status. Unknown
// codes are 500.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	return lookup(code).status
}

// DomainCodeToHTTPCode maps a domain code to the "error" field value.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	return lookup(code).wire
}

// WriteError renders err as an ErrorResponse. Client errors carry their own
// message only. Every 500 carries the full cause chain so callers can see
// which step of the workflow failed.
func WriteError(w http.ResponseWriter, err error) {
	m := lookup(dErrors.CodeOf(err))
	WriteJSON(w, m.status, ErrorResponse{Error: m.wire, Description: describe(err, m.status)})
}

func describe(err error, status int) string {
	var e *dErrors.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if status != http.StatusInternalServerError {
		return e.Message
	}
	return e.Trace()
}
