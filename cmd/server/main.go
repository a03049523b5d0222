package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"kycgate/internal/chain"
	"kycgate/internal/chain/signer"
	"kycgate/internal/chain/sui"
	credentialhandler "kycgate/internal/credential/handler"
	"kycgate/internal/credential/issuer"
	"kycgate/internal/credential/schema"
	credentialservice "kycgate/internal/credential/service"
	"kycgate/internal/credential/verifier"
	identityhandler "kycgate/internal/identity/handler"
	"kycgate/internal/identity/provisioner"
	identityservice "kycgate/internal/identity/service"
	"kycgate/internal/platform/config"
	"kycgate/internal/platform/health"
	"kycgate/internal/platform/idempotency"
	"kycgate/internal/platform/logger"
	"kycgate/internal/platform/metrics"
	"kycgate/internal/platform/middleware"
	httptransport "kycgate/internal/transport/http"
)

const (
	shutdownTimeout = 10 * time.Second
	housekeepPeriod = 15 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.Load(config.DefaultEnvFile)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuerKey, err := signer.FromBase64(cfg.Chain.IssuerSecretKey)
	if err != nil {
		return err
	}
	log.Info("initializing kycgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"issuer_address", issuerKey.Address(),
		"package_id", cfg.Chain.PackageID,
	)

	appMetrics := metrics.New(prometheus.DefaultRegisterer)
	gateway := chain.NewGateway(sui.New(cfg.Chain.RPCURL), cfg.Chain.GasBudget,
		chain.WithLogger(log),
		chain.WithMetrics(appMetrics),
	)

	infra, err := newInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close(log)

	idem := idempotency.Middleware(infra.idempotency, log)

	schemas := schema.New(gateway, issuerKey, cfg.Chain.PackageID,
		schema.WithLogger(log),
		schema.WithMetrics(appMetrics),
	)
	vcIssuer := issuer.New(gateway, schemas, issuerKey, issuer.Config{
		PackageID: cfg.Chain.PackageID,
		IssuerDID: chain.ObjectID(cfg.Chain.DIDObjectID),
		SchemaID:  chain.ObjectID(cfg.Chain.SchemaID),
	}, issuer.WithLogger(log))

	identitySvc := identityservice.NewService(infra.subjects,
		provisioner.New(gateway, issuerKey, cfg.Chain.PackageID, provisioner.WithLogger(log)),
		infra.auditor,
		identityservice.WithMetrics(appMetrics),
		identityservice.WithLogger(log),
	)
	credentialSvc := credentialservice.NewService(infra.credentials, infra.subjects, vcIssuer,
		verifier.New(infra.credentials),
		infra.auditor,
		credentialservice.WithMetrics(appMetrics),
		credentialservice.WithLogger(log),
	)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("sui_rpc", gateway.Ping)
	infra.registerChecks(healthHandler)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:  log,
		Latency: appMetrics,
		Health:  healthHandler,
		Metrics: metrics.Handler(prometheus.DefaultGatherer),
		Users: []httptransport.Registrar{
			identityhandler.New(identitySvc, log, identityhandler.WithIdempotency(idem)),
			credentialhandler.New(credentialSvc, log,
				credentialhandler.WithIdempotency(idem),
				credentialhandler.WithAdmin(middleware.RequireAdminToken(cfg.AdminToken, log)),
			),
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		infra.housekeep(gctx, housekeepPeriod, log)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
