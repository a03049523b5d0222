package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Provisioner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kycgate/internal/chain"
	"kycgate/internal/identity/models"
	"kycgate/internal/platform/metrics"
	"kycgate/internal/platform/middleware"
	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/platform/audit"
	"kycgate/pkg/platform/audit/publisher"
	"kycgate/pkg/platform/sentinel"
)

// Store persists subjects.
// Error Contract:
// - FindByAddress and SetDID return sentinel.ErrNotFound for unknown subjects
// - Create returns sentinel.ErrAlreadyExists for a taken address or handle
// - SetDID returns sentinel.ErrInvalidState when a DID is already attached
type Store interface {
	Create(ctx context.Context, subject *models.Subject) error
	FindByAddress(ctx context.Context, address string) (*models.Subject, error)
	SetDID(ctx context.Context, address, didObjectID string, at time.Time) error
}

// Provisioner creates DID objects on chain.
type Provisioner interface {
	ProvisionDID(ctx context.Context, subject string) (chain.ObjectID, error)
}

type Option func(*Service)

// Service registers subjects and attaches exactly one DID to each.
type Service struct {
	store       Store
	provisioner Provisioner
	auditor     *publisher.Publisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(store Store, provisioner Provisioner, auditor *publisher.Publisher, opts ...Option) *Service {
	svc := &Service{
		store:       store,
		provisioner: provisioner,
		auditor:     auditor,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithMetrics sets the metrics instance for the service
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Register creates a subject. Address and handle must both be unused.
func (s *Service) Register(ctx context.Context, address, handle string) (*models.Subject, error) {
	if address == "" || handle == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Sui address and username are required")
	}
	now := s.now()
	subject := &models.Subject{Address: address, Handle: handle, CreatedAt: now, UpdatedAt: now}
	if err := s.store.Create(ctx, subject); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeConflict, "User with this address or username already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register user")
	}
	s.emitAudit(ctx, audit.Event{Subject: address, Action: string(audit.EventSubjectRegistered), Timestamp: now})
	if s.metrics != nil {
		s.metrics.IncSubjectsRegistered()
	}
	return subject, nil
}

// DIDStatus reports whether a registered subject holds a DID.
func (s *Service) DIDStatus(ctx context.Context, address string) (*models.DIDStatusResponse, error) {
	subject, err := s.store.FindByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return &models.DIDStatusResponse{HasDID: subject.HasDID(), DIDID: subject.DIDObjectID}, nil
}

// ProvisionDID creates the subject's DID, registering the subject first when
// it is unknown. A subject that already holds a DID is rejected before any
// chain call.
func (s *Service) ProvisionDID(ctx context.Context, address string) (*models.ProvisionDIDResponse, error) {
	if address == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user address is required")
	}
	subject, err := s.findOrCreate(ctx, address)
	if err != nil {
		return nil, err
	}
	if subject.HasDID() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "User already has a DID")
	}

	didID, err := s.provisioner.ProvisionDID(ctx, address)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.store.SetDID(ctx, address, didID.String(), now); err != nil {
		// The object exists on chain but is not linked to the subject.
		s.logger.ErrorContext(ctx, "DID created on chain but not attached to user",
			"subject", address,
			"did_object_id", didID,
			"error", err,
		)
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "User already has a DID")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save DID")
	}

	s.emitAudit(ctx, audit.Event{
		Subject:   address,
		Action:    string(audit.EventDIDProvisioned),
		ObjectID:  didID.String(),
		Timestamp: now,
	})
	if s.metrics != nil {
		s.metrics.IncDIDsProvisioned()
	}
	return &models.ProvisionDIDResponse{DIDID: didID.String(), Message: models.MessageDIDCreated}, nil
}

func (s *Service) findOrCreate(ctx context.Context, address string) (*models.Subject, error) {
	subject, err := s.store.FindByAddress(ctx, address)
	if err == nil {
		return subject, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	now := s.now()
	subject = &models.Subject{
		Address:   address,
		Handle:    models.DefaultHandle(address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, subject); err != nil {
		if !errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		// Lost a race with a concurrent registration of the same address.
		existing, findErr := s.store.FindByAddress(ctx, address)
		if findErr != nil {
			return nil, dErrors.New(dErrors.CodeConflict, "default username "+subject.Handle+" is already taken")
		}
		return existing, nil
	}
	s.logger.InfoContext(ctx, "user created implicitly for DID provisioning",
		"subject", address,
		"username", subject.Handle,
	)
	s.emitAudit(ctx, audit.Event{Subject: address, Action: string(audit.EventSubjectRegistered), Timestamp: now})
	if s.metrics != nil {
		s.metrics.IncSubjectsRegistered()
	}
	return subject, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.RequestID = middleware.GetRequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
