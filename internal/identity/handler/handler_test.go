package handler

// Handler tests cover status mapping and request parsing. The full
// register, provision and issue flow runs in e2e/features.

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kycgate/internal/identity/handler/mocks"
	"kycgate/internal/identity/models"
	dErrors "kycgate/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/identity-mocks.go -package=mocks Service

type IdentityHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestIdentityHandlerSuite(t *testing.T) {
	suite.Run(t, new(IdentityHandlerSuite))
}

func (s *IdentityHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *IdentityHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *IdentityHandlerSuite) assertStatusAndError(w *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, w.Code)
	var body map[string]string
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
	s.Equal(code, body["error"])
}

// =============================================================================
// Register
// =============================================================================

func (s *IdentityHandlerSuite) TestRegister() {
	s.Run("created", func() {
		s.service.EXPECT().Register(gomock.Any(), "0xabc", "alice").
			Return(&models.Subject{Address: "0xabc", Handle: "alice"}, nil)

		w := s.do(http.MethodPost, "/register", models.RegisterRequest{SuiAddress: " 0xabc", Username: "alice "})
		s.Equal(http.StatusCreated, w.Code)
		var res models.RegisterResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&res))
		s.Equal(models.RegisterResponse{ID: "0xabc", SuiAddress: "0xabc", Username: "alice"}, res)
	})

	s.Run("missing fields returns 400 without calling service", func() {
		w := s.do(http.MethodPost, "/register", models.RegisterRequest{SuiAddress: "0xabc"})
		s.assertStatusAndError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("malformed body returns 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.assertStatusAndError(w, http.StatusBadRequest, "bad_request")
	})

	s.Run("duplicate returns 409", func() {
		s.service.EXPECT().Register(gomock.Any(), "0xabc", "alice").
			Return(nil, dErrors.New(dErrors.CodeConflict, "User with this address or username already exists"))

		w := s.do(http.MethodPost, "/register", models.RegisterRequest{SuiAddress: "0xabc", Username: "alice"})
		s.assertStatusAndError(w, http.StatusConflict, "conflict")
	})
}

// =============================================================================
// DID
// =============================================================================

func (s *IdentityHandlerSuite) TestDIDStatus() {
	s.Run("found", func() {
		s.service.EXPECT().DIDStatus(gomock.Any(), "0xabc").
			Return(&models.DIDStatusResponse{HasDID: true, DIDID: "0xdid"}, nil)

		w := s.do(http.MethodGet, "/0xabc/did", nil)
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"hasDid":true,"didId":"0xdid"}`, w.Body.String())
	})

	s.Run("unknown subject returns 404", func() {
		s.service.EXPECT().DIDStatus(gomock.Any(), "0xnobody").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "User not found"))

		w := s.do(http.MethodGet, "/0xnobody/did", nil)
		s.assertStatusAndError(w, http.StatusNotFound, "not_found")
	})
}

func (s *IdentityHandlerSuite) TestProvisionDID() {
	s.Run("created", func() {
		s.service.EXPECT().ProvisionDID(gomock.Any(), "0xabc").
			Return(&models.ProvisionDIDResponse{DIDID: "0xdid", Message: models.MessageDIDCreated}, nil)

		w := s.do(http.MethodPost, "/0xabc/did", nil)
		s.Equal(http.StatusCreated, w.Code)
		s.JSONEq(`{"didId":"0xdid","message":"DID created successfully"}`, w.Body.String())
	})

	s.Run("already has DID returns 400", func() {
		s.service.EXPECT().ProvisionDID(gomock.Any(), "0xabc").
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "User already has a DID"))

		w := s.do(http.MethodPost, "/0xabc/did", nil)
		s.assertStatusAndError(w, http.StatusBadRequest, "bad_request")
	})

	s.Run("chain failure returns 500 with cause", func() {
		s.service.EXPECT().ProvisionDID(gomock.Any(), "0xabc").
			Return(nil, dErrors.New(dErrors.CodeDIDCreation, "DID transaction d1 created no DIDObject"))

		w := s.do(http.MethodPost, "/0xabc/did", nil)
		s.Equal(http.StatusInternalServerError, w.Code)
		s.Contains(w.Body.String(), "created no DIDObject")
	})
}
