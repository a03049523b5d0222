// Package provisioner creates on-chain DID objects. It performs no
// idempotence check; callers must not invoke it for a subject that already
// holds a DID.
package provisioner

import (
	"context"
	"log/slog"

	"kycgate/internal/chain"
	dErrors "kycgate/pkg/domain-errors"
)

const (
	module         = "did_manager"
	createFunction = "create_did"

	// ObjectType is the type suffix of created DID objects.
	ObjectType = "::did_manager::DIDObject"
)

// Submitter submits signed Move calls.
type Submitter interface {
	Submit(ctx context.Context, call chain.MoveCall, signer chain.Signer) (*chain.TransactionResult, error)
}

type Provisioner struct {
	gateway   Submitter
	signer    chain.Signer
	packageID string
	logger    *slog.Logger
}

type Option func(*Provisioner)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

func New(gateway Submitter, signer chain.Signer, packageID string, opts ...Option) *Provisioner {
	p := &Provisioner{
		gateway:   gateway,
		signer:    signer,
		packageID: packageID,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProvisionDID submits create_did and returns the created DID object id. The
// contract takes no arguments; the issuer signs and sponsors the transaction
// on behalf of subject.
func (p *Provisioner) ProvisionDID(ctx context.Context, subject string) (chain.ObjectID, error) {
	result, err := p.gateway.Submit(ctx, chain.MoveCall{
		Package:  p.packageID,
		Module:   module,
		Function: createFunction,
	}, p.signer)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeChainSubmission, "create DID")
	}

	// Only a DID object counts, even if the transaction created others.
	created, ok := result.FindCreated(ObjectType)
	if !ok {
		return "", dErrors.New(dErrors.CodeDIDCreation,
			"DID transaction "+result.Digest+" created no "+ObjectType)
	}
	p.logger.InfoContext(ctx, "DID created on chain",
		"subject", subject,
		"did_object_id", created.ObjectID,
		"digest", result.Digest,
	)
	return created.ObjectID, nil
}
