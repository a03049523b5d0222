// Package schema ensures the KYC credential schema object exists on chain.
package schema

import (
	"context"
	"log/slog"

	"kycgate/internal/chain"
	dErrors "kycgate/pkg/domain-errors"
)

const (
	// KYCName is the on-chain name of the KYC credential schema.
	KYCName = "KYC_Credential"

	module         = "vc_manager"
	createFunction = "create_schema"

	// ObjectType is the type suffix of created schema objects.
	ObjectType = "::vc_manager::SchemaObject"
)

// KYCFields returns the KYC schema field names in their fixed order.
func KYCFields() []string {
	return []string{"firstName", "lastName", "dateOfBirth", "nationalId", "address"}
}

// Gateway is the subset of chain.Gateway the manager uses.
type Gateway interface {
	ResolveObject(ctx context.Context, id chain.ObjectID) (*chain.ObjectSnapshot, bool)
	Submit(ctx context.Context, call chain.MoveCall, signer chain.Signer) (*chain.TransactionResult, error)
}

// Recorder receives schema creation counts.
type Recorder interface {
	IncSchemasCreated()
}

// Manager creates schema objects lazily. Existence is checked on every call
// and never cached, so two concurrent callers that both miss the configured
// schema will each create one. Both objects are valid; only the last one
// observed is used.
type Manager struct {
	gateway   Gateway
	signer    chain.Signer
	packageID string
	logger    *slog.Logger
	metrics   Recorder
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(r Recorder) Option {
	return func(m *Manager) {
		m.metrics = r
	}
}

func New(gateway Gateway, signer chain.Signer, packageID string, opts ...Option) *Manager {
	m := &Manager{
		gateway:   gateway,
		signer:    signer,
		packageID: packageID,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureSchema returns configuredID when it resolves on chain. Otherwise it
// creates a schema named name with fields in the given order and returns the
// new object id.
func (m *Manager) EnsureSchema(ctx context.Context, configuredID chain.ObjectID, name string, fields []string) (chain.ObjectID, error) {
	if _, ok := m.gateway.ResolveObject(ctx, configuredID); ok {
		return configuredID, nil
	}

	m.logger.InfoContext(ctx, "schema not found on chain, creating",
		"configured_schema_id", configuredID,
		"schema_name", name,
	)
	result, err := m.gateway.Submit(ctx, chain.MoveCall{
		Package:  m.packageID,
		Module:   module,
		Function: createFunction,
		Args:     []any{name, append([]string(nil), fields...)},
	}, m.signer)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeChainSubmission, "create schema")
	}

	created, ok := result.FindCreated(ObjectType)
	if !ok {
		return "", dErrors.New(dErrors.CodeSchemaCreation,
			"schema transaction "+result.Digest+" created no "+ObjectType)
	}
	if m.metrics != nil {
		m.metrics.IncSchemasCreated()
	}
	m.logger.InfoContext(ctx, "schema created",
		"schema_id", created.ObjectID,
		"digest", result.Digest,
	)
	return created.ObjectID, nil
}
