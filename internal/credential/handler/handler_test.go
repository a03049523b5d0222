package handler

// Handler tests cover status mapping and request parsing. Happy paths run
// end to end in e2e/features.

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kycgate/internal/credential/handler/mocks"
	"kycgate/internal/credential/models"
	"kycgate/internal/platform/middleware"
	dErrors "kycgate/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/credential-mocks.go -package=mocks Service

const adminToken = "s3cret"

type CredentialHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestCredentialHandlerSuite(t *testing.T) {
	suite.Run(t, new(CredentialHandlerSuite))
}

func (s *CredentialHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.service, logger, WithAdmin(middleware.RequireAdminToken(adminToken, logger))).Register(s.router)
}

func (s *CredentialHandlerSuite) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *CredentialHandlerSuite) assertStatusAndError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code)
	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal(code, body["error"])
}

func validIssueRequest() models.IssueCredentialRequest {
	return models.IssueCredentialRequest{
		UserAddress: "0xabc",
		CredentialData: &models.Claims{
			FullName: "Jane Doe", DateOfBirth: "1990-01-01", NationalID: "N123", Address: "1 Main St",
		},
	}
}

// =============================================================================
// Issue credential
// =============================================================================

func (s *CredentialHandlerSuite) TestIssueCredential() {
	s.Run("created returns the mirror record", func() {
		req := validIssueRequest()
		s.service.EXPECT().IssueAndRecord(gomock.Any(), "0xabc", *req.CredentialData).
			Return(&models.CredentialRecord{
				ID: "65a1b2c3d4e5f60718293a4b", SubjectAddress: "0xabc", Claims: *req.CredentialData,
				IssuedAt: time.Unix(0, 0).UTC(), OnChainID: "0xvc", TransactionDigest: "d1",
			}, nil)

		w := s.do(http.MethodPost, "/credentials", req)
		s.Equal(http.StatusCreated, w.Code)
		var body map[string]any
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
		s.Equal("65a1b2c3d4e5f60718293a4b", body["id"])
		s.Equal("0xvc", body["suiVcId"])
		s.Equal(false, body["isRevoked"])
	})

	s.Run("missing credential fields returns 400", func() {
		req := validIssueRequest()
		req.CredentialData.Address = ""
		w := s.do(http.MethodPost, "/credentials", req)
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("missing credential data returns 400", func() {
		w := s.do(http.MethodPost, "/credentials", map[string]string{"userAddress": "0xabc"})
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("no DID returns 400", func() {
		s.service.EXPECT().IssueAndRecord(gomock.Any(), "0xabc", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "User must have a DID before creating credentials"))
		w := s.do(http.MethodPost, "/credentials", validIssueRequest())
		s.assertStatusAndError(w, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown subject returns 404", func() {
		s.service.EXPECT().IssueAndRecord(gomock.Any(), "0xabc", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "User not found"))
		w := s.do(http.MethodPost, "/credentials", validIssueRequest())
		s.assertStatusAndError(w, http.StatusNotFound, "not_found")
	})

	s.Run("chain failure returns 500", func() {
		s.service.EXPECT().IssueAndRecord(gomock.Any(), "0xabc", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeChainSubmission, "issue credential"))
		w := s.do(http.MethodPost, "/credentials", validIssueRequest())
		s.assertStatusAndError(w, http.StatusInternalServerError, "chain_submission_failed")
	})
}

// =============================================================================
// Legacy issuance
// =============================================================================

func (s *CredentialHandlerSuite) TestIssueKYC() {
	s.Run("ok", func() {
		s.service.EXPECT().IssueOnChain(gomock.Any(), "0xabc", models.KYCClaims{
			FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-01-01", NationalID: "N123", Address: "1 Main St",
		}).Return(&models.IssueResult{TransactionDigest: "d1", CredentialObjectID: "0xvc"}, nil)

		w := s.do(http.MethodPost, "/issue-kyc", models.IssueKYCRequest{
			SuiAddress: "0xabc", FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-01-01",
			NationalID: "N123", Address: "1 Main St",
		})
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"message":"KYC Credential issued successfully!","transactionDigest":"d1","vcObjectId":"0xvc"}`, w.Body.String())
	})

	s.Run("missing fields returns 400", func() {
		w := s.do(http.MethodPost, "/issue-kyc", models.IssueKYCRequest{SuiAddress: "0xabc"})
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("missing national id and address returns 400", func() {
		w := s.do(http.MethodPost, "/issue-kyc", models.IssueKYCRequest{
			SuiAddress: "0xabc", FirstName: "Jane", LastName: "Doe", DateOfBirth: "1990-01-01",
		})
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("subject without DID returns 400", func() {
		s.service.EXPECT().IssueOnChain(gomock.Any(), "0xdef", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "User must have a DID before creating credentials"))
		w := s.do(http.MethodPost, "/issue-kyc", models.IssueKYCRequest{
			SuiAddress: "0xdef", FirstName: "Bob", LastName: "Roe", DateOfBirth: "1985-05-05",
			NationalID: "N456", Address: "2 Side St",
		})
		s.assertStatusAndError(w, http.StatusBadRequest, "bad_request")
	})
}

// =============================================================================
// List and verify
// =============================================================================

func (s *CredentialHandlerSuite) TestListCredentials() {
	s.Run("empty list renders as array", func() {
		s.service.EXPECT().ListActive(gomock.Any(), "0xabc").Return([]*models.CredentialRecord{}, nil)
		w := s.do(http.MethodGet, "/0xabc/credentials", nil)
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`[]`, w.Body.String())
	})

	s.Run("store failure returns 500", func() {
		s.service.EXPECT().ListActive(gomock.Any(), "0xabc").
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to list credentials"))
		w := s.do(http.MethodGet, "/0xabc/credentials", nil)
		s.assertStatusAndError(w, http.StatusInternalServerError, "internal_error")
	})
}

func (s *CredentialHandlerSuite) TestVerify() {
	s.Run("not found is a 200 negative result", func() {
		s.service.EXPECT().Verify(gomock.Any(), "0xabc", "0xmissing").
			Return(&models.VerifyResult{Message: models.MessageNotFound}, nil)
		w := s.do(http.MethodPost, "/verify", models.VerifyRequest{UserAddress: "0xabc", VCID: "0xmissing"})
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"isValid":false,"hasAccess":false,"message":"Credential not found or has been revoked"}`, w.Body.String())
	})

	s.Run("missing vcId returns 400", func() {
		w := s.do(http.MethodPost, "/verify", models.VerifyRequest{UserAddress: "0xabc"})
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("store failure returns 500", func() {
		s.service.EXPECT().Verify(gomock.Any(), "0xabc", "0xvc").
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to look up credential"))
		w := s.do(http.MethodPost, "/verify", models.VerifyRequest{UserAddress: "0xabc", VCID: "0xvc"})
		s.assertStatusAndError(w, http.StatusInternalServerError, "internal_error")
	})
}

// =============================================================================
// Revoke
// =============================================================================

func (s *CredentialHandlerSuite) TestRevoke() {
	const path = "/credentials/65a1b2c3d4e5f60718293a4b/revoke"

	s.Run("missing admin token returns 401", func() {
		w := s.do(http.MethodPost, path, nil)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("revoked", func() {
		s.service.EXPECT().Revoke(gomock.Any(), "65a1b2c3d4e5f60718293a4b").
			Return(&models.CredentialRecord{ID: "65a1b2c3d4e5f60718293a4b", Revoked: true}, nil)
		w := s.do(http.MethodPost, path, nil, "X-Admin-Token", adminToken)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"isRevoked":true`)
	})

	s.Run("already revoked returns 409", func() {
		s.service.EXPECT().Revoke(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "credential already revoked"))
		w := s.do(http.MethodPost, path, nil, "X-Admin-Token", adminToken)
		s.assertStatusAndError(w, http.StatusConflict, "conflict")
	})
}

func TestRevokeNotRoutedWithoutAdminGuard(t *testing.T) {
	router := chi.NewRouter()
	New(mocks.NewMockService(gomock.NewController(t)), slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	req := httptest.NewRequest(http.MethodPost, "/credentials/65a1b2c3d4e5f60718293a4b/revoke", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Fatalf("revocation must not be reachable without an admin guard")
	}
}
