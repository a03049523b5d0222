package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Subjects,Issuer,Verifier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kycgate/internal/credential/models"
	idmodels "kycgate/internal/identity/models"
	"kycgate/internal/platform/metrics"
	"kycgate/internal/platform/middleware"
	"kycgate/internal/platform/privacy"
	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/platform/audit"
	"kycgate/pkg/platform/audit/publisher"
	"kycgate/pkg/platform/sentinel"
)

// Store persists credential mirror records.
// Error Contract:
// - Lookups and Revoke return sentinel.ErrNotFound when no record matches
// - Revoke returns sentinel.ErrInvalidState for an already revoked record
type Store interface {
	Save(ctx context.Context, record *models.CredentialRecord) error
	FindByID(ctx context.Context, id string) (*models.CredentialRecord, error)
	FindActive(ctx context.Context, subject, onChainID string) (*models.CredentialRecord, error)
	FindActiveByKey(ctx context.Context, subject, key string) (*models.CredentialRecord, error)
	ListActive(ctx context.Context, subject string) ([]*models.CredentialRecord, error)
	Revoke(ctx context.Context, id string, at time.Time) (*models.CredentialRecord, error)
}

// Subjects looks up registered subjects. FindByAddress returns
// sentinel.ErrNotFound for unknown addresses.
type Subjects interface {
	FindByAddress(ctx context.Context, address string) (*idmodels.Subject, error)
}

// Issuer issues credentials on chain.
type Issuer interface {
	IssueCredential(ctx context.Context, recipient string, claims models.KYCClaims) (*models.IssueResult, error)
}

// Verifier answers verification queries.
type Verifier interface {
	Verify(ctx context.Context, subject, ref string) (*models.VerifyResult, error)
}

type Option func(*Service)

// Service issues credentials and keeps their mirror records. A mirror record
// is written only after the chain returned a credential object.
type Service struct {
	store    Store
	subjects Subjects
	issuer   Issuer
	verifier Verifier
	auditor  *publisher.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, subjects Subjects, issuer Issuer, verifier Verifier, auditor *publisher.Publisher, opts ...Option) *Service {
	svc := &Service{
		store:    store,
		subjects: subjects,
		issuer:   issuer,
		verifier: verifier,
		auditor:  auditor,
		logger:   slog.Default(),
		now:      time.Now,
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

// IssueAndRecord issues a credential to a subject holding a DID and stores
// its mirror record. Subjects without a DID are rejected before any chain call.
func (s *Service) IssueAndRecord(ctx context.Context, subject string, claims models.Claims) (*models.CredentialRecord, error) {
	holder, err := s.subjects.FindByAddress(ctx, subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !holder.HasDID() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "User must have a DID before creating credentials")
	}

	result, err := s.issuer.IssueCredential(ctx, subject, models.ClaimsFromRecord(claims))
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &models.CredentialRecord{
		ID:                models.NewMirrorKey(now),
		SubjectAddress:    subject,
		Claims:            claims,
		IssuedAt:          now,
		OnChainID:         result.CredentialObjectID,
		TransactionDigest: result.TransactionDigest,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Save(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "credential issued on chain but mirror write failed",
			"subject", subject,
			"vc_object_id", result.CredentialObjectID,
			"digest", result.TransactionDigest,
			"national_id", privacy.MaskIdentifier(claims.NationalID),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
	}
	s.logger.InfoContext(ctx, "credential recorded",
		"subject", subject,
		"record_id", record.ID,
		"vc_object_id", record.OnChainID,
		"national_id", privacy.MaskIdentifier(claims.NationalID),
	)

	s.emitAudit(ctx, audit.Event{
		Subject:   subject,
		Action:    string(audit.EventVCIssued),
		ObjectID:  record.OnChainID,
		Reference: record.ID,
		Timestamp: now,
	})
	if s.metrics != nil {
		s.metrics.IncCredentialsIssued()
	}
	return record, nil
}

// IssueOnChain issues a credential to a subject holding a DID without writing
// a mirror record. Subjects without a DID are rejected before any chain call.
func (s *Service) IssueOnChain(ctx context.Context, subject string, claims models.KYCClaims) (*models.IssueResult, error) {
	holder, err := s.subjects.FindByAddress(ctx, subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found with this Sui address")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !holder.HasDID() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "User must have a DID before creating credentials")
	}
	result, err := s.issuer.IssueCredential(ctx, subject, claims)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, audit.Event{
		Subject:   subject,
		Action:    string(audit.EventVCIssued),
		ObjectID:  result.CredentialObjectID,
		Reference: result.TransactionDigest,
		Timestamp: s.now(),
	})
	if s.metrics != nil {
		s.metrics.IncCredentialsIssued()
	}
	return result, nil
}

// ListActive returns the subject's unrevoked credentials, newest first.
func (s *Service) ListActive(ctx context.Context, subject string) ([]*models.CredentialRecord, error) {
	records, err := s.store.ListActive(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	return records, nil
}

func (s *Service) Verify(ctx context.Context, subject, ref string) (*models.VerifyResult, error) {
	result, err := s.verifier.Verify(ctx, subject, ref)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		outcome := "denied"
		if result.HasAccess {
			outcome = "granted"
		}
		s.metrics.IncVerification(outcome)
	}
	return result, nil
}

// Revoke marks a mirror record revoked. Revocation is terminal.
func (s *Service) Revoke(ctx context.Context, id string) (*models.CredentialRecord, error) {
	now := s.now()
	record, err := s.store.Revoke(ctx, id, now)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "credential already revoked")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
		}
	}
	s.emitAudit(ctx, audit.Event{
		Subject:   record.SubjectAddress,
		Action:    string(audit.EventVCRevoked),
		ObjectID:  record.OnChainID,
		Reference: record.ID,
		Timestamp: now,
	})
	if s.metrics != nil {
		s.metrics.IncCredentialsRevoked()
	}
	return record, nil
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
