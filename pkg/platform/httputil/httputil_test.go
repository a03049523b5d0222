package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kycgate/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
	}{
		{
			name:   "not found",
			err:    dErrors.New(dErrors.CodeNotFound, "user not found"),
			status: http.StatusNotFound, code: "not_found", description: "user not found",
		},
		{
			name:   "conflict",
			err:    dErrors.New(dErrors.CodeConflict, "credential already revoked"),
			status: http.StatusConflict, code: "conflict", description: "credential already revoked",
		},
		{
			name:   "chain submission includes cause",
			err:    dErrors.Wrap(errors.New("dial tcp: connection refused"), dErrors.CodeChainSubmission, "submit transaction"),
			status: http.StatusInternalServerError, code: "chain_submission_failed",
			description: "submit transaction: dial tcp: connection refused",
		},
		{
			name: "nested ledger errors keep root cause",
			err: dErrors.Wrap(
				dErrors.Wrap(errors.New("InsufficientGas"), dErrors.CodeChainSubmission, "execute transaction"),
				dErrors.CodeVCIssuance, "issue credential"),
			status: http.StatusInternalServerError, code: "chain_submission_failed",
			description: "issue credential: execute transaction: InsufficientGas",
		},
		{
			name:   "vc issuance without cause",
			err:    dErrors.New(dErrors.CodeVCIssuance, "no VC object created"),
			status: http.StatusInternalServerError, code: "vc_issuance_failed", description: "no VC object created",
		},
		{
			name:   "internal keeps cause",
			err:    dErrors.Wrap(errors.New("connection refused"), dErrors.CodeInternal, "failed to look up credential"),
			status: http.StatusInternalServerError, code: "internal_error",
			description: "failed to look up credential: connection refused",
		},
		{
			name:   "client errors do not expose cause",
			err:    dErrors.Wrap(errors.New("sql: no rows"), dErrors.CodeNotFound, "credential not found"),
			status: http.StatusNotFound, code: "not_found", description: "credential not found",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["error"])
			assert.Equal(t, tc.description, body["error_description"])
		})
	}

	t.Run("plain error falls back to internal with its text", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "internal_error", body["error"])
		assert.Equal(t, "boom", body["error_description"])
	})
}
