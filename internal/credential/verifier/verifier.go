// Package verifier answers credential verification queries from the mirror
// store. Records are not re-checked on chain.
package verifier

import (
	"context"
	"errors"

	"kycgate/internal/credential/models"
	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/platform/sentinel"
)

// Store looks up active mirror records. Both methods return
// sentinel.ErrNotFound when no unrevoked record matches.
type Store interface {
	FindActive(ctx context.Context, subject, onChainID string) (*models.CredentialRecord, error)
	FindActiveByKey(ctx context.Context, subject, key string) (*models.CredentialRecord, error)
}

type Verifier struct {
	store Store
}

func New(store Store) *Verifier {
	return &Verifier{store: store}
}

// Verify resolves ref as an on-chain credential id, then as a mirror key when
// it has that shape. A missing credential yields a negative result.
func (v *Verifier) Verify(ctx context.Context, subject, ref string) (*models.VerifyResult, error) {
	record, err := v.lookup(ctx, subject, ref)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return &models.VerifyResult{Message: models.MessageNotFound}, nil
	}

	// Lookups already exclude revoked records; the flag is checked again so a
	// store that ignores the filter cannot grant access.
	isValid := !record.Revoked
	hasAccess := isValid && record.Claims.FullName != ""
	msg := models.MessageDenied
	if hasAccess {
		msg = models.MessageAccessGranted
	}
	return &models.VerifyResult{IsValid: isValid, HasAccess: hasAccess, Message: msg}, nil
}

func (v *Verifier) lookup(ctx context.Context, subject, ref string) (*models.CredentialRecord, error) {
	record, err := v.store.FindActive(ctx, subject, ref)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up credential")
	}
	if !models.IsMirrorKey(ref) {
		return nil, nil
	}

	record, err = v.store.FindActiveByKey(ctx, subject, ref)
	if err == nil {
		return record, nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up credential")
}
