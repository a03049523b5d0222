package chain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/platform/sentinel"
)

// Client is the ledger RPC surface the gateway depends on.
type Client interface {
	// GetObject returns sentinel.ErrNotFound when the object does not exist.
	GetObject(ctx context.Context, id ObjectID) (*ObjectSnapshot, error)
	// BuildMoveCall returns unsigned transaction bytes for call.
	BuildMoveCall(ctx context.Context, sender string, call MoveCall, gasBudget uint64) ([]byte, error)
	// ExecuteTransaction submits signed bytes and waits for local execution.
	ExecuteTransaction(ctx context.Context, txBytes []byte, signatures []string) (*TransactionResult, error)
}

// Signer signs transaction bytes on behalf of the issuer account.
type Signer interface {
	Address() string
	// SignTransaction returns the serialized signature for txBytes.
	SignTransaction(txBytes []byte) (string, error)
}

// Recorder receives gateway metrics. Satisfied by *metrics.Metrics.
type Recorder interface {
	ObserveSubmission(function, outcome string, seconds float64)
	IncChainReadFailures()
}

// Gateway is the single point of contact with the ledger.
type Gateway struct {
	client    Client
	gasBudget uint64
	logger    *slog.Logger
	metrics   Recorder
	tracer    trace.Tracer
}

// Option configures the Gateway.
type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithMetrics(m Recorder) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = t
	}
}

// NewGateway wraps client. gasBudget is attached to every submission.
func NewGateway(client Client, gasBudget uint64, opts ...Option) *Gateway {
	g := &Gateway{
		client:    client,
		gasBudget: gasBudget,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer("kycgate/chain")
	}
	return g
}

// ResolveObject reports whether id exists on chain. Read failures are logged
// and reported as absent; callers treat absent as "create it".
func (g *Gateway) ResolveObject(ctx context.Context, id ObjectID) (*ObjectSnapshot, bool) {
	ctx, span := g.tracer.Start(ctx, "chain.ResolveObject",
		trace.WithAttributes(attribute.String("chain.object_id", id.String())))
	defer span.End()

	if id.IsZero() {
		span.SetAttributes(attribute.Bool("chain.object_found", false))
		return nil, false
	}

	obj, err := g.client.GetObject(ctx, id)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			g.logger.WarnContext(ctx, "object read failed, treating as absent",
				"object_id", id,
				"error", err,
			)
			span.RecordError(err)
			if g.metrics != nil {
				g.metrics.IncChainReadFailures()
			}
		}
		span.SetAttributes(attribute.Bool("chain.object_found", false))
		return nil, false
	}
	span.SetAttributes(attribute.Bool("chain.object_found", true))
	return obj, true
}

// Submit builds, signs and executes call. Every failure is reported as
// CodeChainSubmission; submissions are never retried here.
func (g *Gateway) Submit(ctx context.Context, call MoveCall, signer Signer) (*TransactionResult, error) {
	ctx, span := g.tracer.Start(ctx, "chain.Submit",
		trace.WithAttributes(attribute.String("chain.target", call.Target())))
	defer span.End()

	start := time.Now()
	result, err := g.submit(ctx, call, signer)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.observe(call.Function, "failure", elapsed)
		g.logger.ErrorContext(ctx, "transaction submission failed",
			"target", call.Target(),
			"error", err,
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("chain.digest", result.Digest),
		attribute.Int("chain.created_objects", len(result.Created)),
	)
	g.observe(call.Function, "success", elapsed)
	g.logger.InfoContext(ctx, "transaction executed",
		"target", call.Target(),
		"digest", result.Digest,
		"created_objects", len(result.Created),
	)
	return result, nil
}

func (g *Gateway) submit(ctx context.Context, call MoveCall, signer Signer) (*TransactionResult, error) {
	if signer == nil {
		return nil, dErrors.New(dErrors.CodeChainSubmission, "no signer configured")
	}
	txBytes, err := g.client.BuildMoveCall(ctx, signer.Address(), call, g.gasBudget)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeChainSubmission, "build transaction "+call.Target())
	}
	signature, err := signer.SignTransaction(txBytes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeChainSubmission, "sign transaction "+call.Target())
	}
	result, err := g.client.ExecuteTransaction(ctx, txBytes, []string{signature})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeChainSubmission, "execute transaction "+call.Target())
	}
	return result, nil
}

func (g *Gateway) observe(function, outcome string, seconds float64) {
	if g.metrics != nil {
		g.metrics.ObserveSubmission(function, outcome, seconds)
	}
}

// Ping checks RPC reachability for the readiness endpoint.
func (g *Gateway) Ping(ctx context.Context) error {
	p, ok := g.client.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}
