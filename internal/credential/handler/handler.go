package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycgate/internal/credential/models"
	"kycgate/internal/platform/middleware"
	"kycgate/pkg/platform/httputil"
)

// Service defines the interface for credential operations.
type Service interface {
	IssueAndRecord(ctx context.Context, subject string, claims models.Claims) (*models.CredentialRecord, error)
	IssueOnChain(ctx context.Context, subject string, claims models.KYCClaims) (*models.IssueResult, error)
	ListActive(ctx context.Context, subject string) ([]*models.CredentialRecord, error)
	Verify(ctx context.Context, subject, ref string) (*models.VerifyResult, error)
	Revoke(ctx context.Context, id string) (*models.CredentialRecord, error)
}

// Handler handles credential issuance, listing, verification and revocation.
type Handler struct {
	logger     *slog.Logger
	service    Service
	idempotent []func(http.Handler) http.Handler
	admin      []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithIdempotency wraps the issuance routes with mw.
func WithIdempotency(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.idempotent = append(h.idempotent, mw)
	}
}

// WithAdmin guards revocation with mw. Revocation is not routed without it.
func WithAdmin(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.admin = append(h.admin, mw)
	}
}

// New creates a new credential Handler.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{logger: logger, service: service}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the credential routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.idempotent...).Post("/issue-kyc", h.HandleIssueKYC)
	r.With(h.idempotent...).Post("/credentials", h.HandleIssueCredential)
	r.Get("/{address}/credentials", h.HandleListCredentials)
	r.Post("/verify", h.HandleVerify)
	if len(h.admin) > 0 {
		r.With(h.admin...).Post("/credentials/{id}/revoke", h.HandleRevoke)
	}
}

// HandleIssueCredential issues a credential on chain and returns its mirror record.
func (h *Handler) HandleIssueCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.Decode[models.IssueCredentialRequest](w, r, h.logger)
	if !ok {
		return
	}

	record, err := h.service.IssueAndRecord(ctx, req.UserAddress, *req.CredentialData)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create credential",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleIssueKYC issues a credential on chain only. No mirror record is kept.
func (h *Handler) HandleIssueKYC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.Decode[models.IssueKYCRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.IssueOnChain(ctx, req.SuiAddress, req.Claims())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue KYC credential",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.IssueKYCResponse{
		Message:     "KYC Credential issued successfully!",
		IssueResult: *result,
	})
}

func (h *Handler) HandleListCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	records, err := h.service.ListActive(ctx, chi.URLParam(r, "address"))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list credentials",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// HandleVerify answers 200 for both outcomes; only store failures are errors.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.Decode[models.VerifyRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, req.UserAddress, req.VCID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to verify credential",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	id := chi.URLParam(r, "id")

	record, err := h.service.Revoke(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to revoke credential",
			"request_id", requestID,
			"credential_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "credential revoked",
		"request_id", requestID,
		"credential_id", id,
	)
	httputil.WriteJSON(w, http.StatusOK, record)
}
