package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycgate/internal/identity/models"
	"kycgate/internal/platform/middleware"
	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/platform/httputil"
)

// Service defines the interface for subject and DID operations.
type Service interface {
	Register(ctx context.Context, address, handle string) (*models.Subject, error)
	DIDStatus(ctx context.Context, address string) (*models.DIDStatusResponse, error)
	ProvisionDID(ctx context.Context, address string) (*models.ProvisionDIDResponse, error)
}

// Handler handles subject registration and DID endpoints.
type Handler struct {
	logger     *slog.Logger
	service    Service
	idempotent []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithIdempotency wraps the DID provisioning route, which submits a
// transaction, with mw.
func WithIdempotency(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.idempotent = append(h.idempotent, mw)
	}
}

// New creates a new identity Handler.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{logger: logger, service: service}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the identity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Get("/{address}/did", h.HandleDIDStatus)
	r.With(h.idempotent...).Post("/{address}/did", h.HandleProvisionDID)
}

// HandleRegister creates a subject from a chain address and a unique username.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.Decode[models.RegisterRequest](w, r, h.logger)
	if !ok {
		return
	}

	subject, err := h.service.Register(ctx, req.SuiAddress, req.Username)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to register user",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.RegisterResponse{
		ID:         subject.Address,
		SuiAddress: subject.Address,
		Username:   subject.Handle,
	})
}

func (h *Handler) HandleDIDStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	address := chi.URLParam(r, "address")

	status, err := h.service.DIDStatus(ctx, address)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to check DID",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

// HandleProvisionDID creates the subject's on-chain DID, sponsored by the issuer.
func (h *Handler) HandleProvisionDID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	address := chi.URLParam(r, "address")
	if address == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "user address is required"))
		return
	}

	res, err := h.service.ProvisionDID(ctx, address)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create DID",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}
