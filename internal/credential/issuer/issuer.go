// Package issuer builds and submits KYC credential issuance transactions.
package issuer

import (
	"context"
	"log/slog"
	"sync"

	"kycgate/internal/chain"
	"kycgate/internal/credential/models"
	"kycgate/internal/credential/schema"
	dErrors "kycgate/pkg/domain-errors"
)

const (
	module        = "vc_manager"
	issueFunction = "issue_vc"

	// ObjectType is the type suffix of created credential objects.
	ObjectType = "::vc_manager::VCObject"
)

// ProofMaterial produces the proof bytes attached to an issuance.
type ProofMaterial interface {
	Proof(ctx context.Context, recipient string, claims models.KYCClaims) ([]byte, error)
}

// PlaceholderProof attaches a constant in place of a real signature. The
// contract stores the bytes without checking them.
type PlaceholderProof struct{}

const placeholderProof = "signature_would_go_here"

func (PlaceholderProof) Proof(context.Context, string, models.KYCClaims) ([]byte, error) {
	return []byte(placeholderProof), nil
}

// SchemaEnsurer resolves or creates the credential schema.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context, configuredID chain.ObjectID, name string, fields []string) (chain.ObjectID, error)
}

// Submitter submits signed Move calls.
type Submitter interface {
	Submit(ctx context.Context, call chain.MoveCall, signer chain.Signer) (*chain.TransactionResult, error)
}

// Config identifies the deployed contract and the issuer's own objects.
type Config struct {
	PackageID string
	IssuerDID chain.ObjectID
	SchemaID  chain.ObjectID
}

// Issuer submits issue_vc transactions. It never writes mirror records.
type Issuer struct {
	gateway   Submitter
	schemas   SchemaEnsurer
	signer    chain.Signer
	proof     ProofMaterial
	logger    *slog.Logger
	packageID string
	issuerDID chain.ObjectID

	mu       sync.RWMutex
	schemaID chain.ObjectID
}

type Option func(*Issuer)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Issuer) {
		i.logger = logger
	}
}

// WithProofMaterial replaces the placeholder proof.
func WithProofMaterial(p ProofMaterial) Option {
	return func(i *Issuer) {
		i.proof = p
	}
}

func New(gateway Submitter, schemas SchemaEnsurer, signer chain.Signer, cfg Config, opts ...Option) *Issuer {
	i := &Issuer{
		gateway:   gateway,
		schemas:   schemas,
		signer:    signer,
		proof:     PlaceholderProof{},
		logger:    slog.Default(),
		packageID: cfg.PackageID,
		issuerDID: cfg.IssuerDID,
		schemaID:  cfg.SchemaID,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SchemaID returns the schema id currently used for issuance.
func (i *Issuer) SchemaID() chain.ObjectID {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.schemaID
}

func (i *Issuer) setSchemaID(ctx context.Context, id chain.ObjectID) {
	i.mu.Lock()
	previous := i.schemaID
	i.schemaID = id
	i.mu.Unlock()

	if previous != id {
		i.logger.InfoContext(ctx, "using new schema for issuance", "previous_schema_id", previous, "schema_id", id)
	}
}

// IssueCredential issues a KYC credential to recipient and returns the created
// credential object id with the transaction digest.
func (i *Issuer) IssueCredential(ctx context.Context, recipient string, claims models.KYCClaims) (*models.IssueResult, error) {
	schemaID, err := i.schemas.EnsureSchema(ctx, i.SchemaID(), schema.KYCName, schema.KYCFields())
	if err != nil {
		return nil, err
	}
	i.setSchemaID(ctx, schemaID)

	proof, err := i.proof.Proof(ctx, recipient, claims)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeVCIssuance, "build proof")
	}

	result, err := i.gateway.Submit(ctx, chain.MoveCall{
		Package:  i.packageID,
		Module:   module,
		Function: issueFunction,
		Args: []any{
			i.issuerDID,
			schemaID,
			recipient,
			claims.FirstName,
			claims.LastName,
			claims.DateOfBirth,
			claims.NationalID,
			claims.Address,
			chain.PureBytes(proof),
			chain.ClockObjectID,
		},
	}, i.signer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeChainSubmission, "issue credential")
	}

	created, ok := result.FindCreated(ObjectType)
	if !ok {
		return nil, dErrors.New(dErrors.CodeVCIssuance,
			"issuance transaction "+result.Digest+" created no "+ObjectType)
	}
	i.logger.InfoContext(ctx, "credential issued on chain",
		"vc_object_id", created.ObjectID,
		"digest", result.Digest,
		"schema_id", schemaID,
	)
	return &models.IssueResult{
		TransactionDigest:  result.Digest,
		CredentialObjectID: created.ObjectID.String(),
	}, nil
}
