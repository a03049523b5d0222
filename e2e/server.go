package e2e

import (
	"io"
	"log/slog"
	"net/http/httptest"

	"kycgate/internal/chain"
	"kycgate/internal/chain/chaintest"
	credentialhandler "kycgate/internal/credential/handler"
	"kycgate/internal/credential/issuer"
	"kycgate/internal/credential/schema"
	credentialservice "kycgate/internal/credential/service"
	credentialstore "kycgate/internal/credential/store"
	"kycgate/internal/credential/verifier"
	identityhandler "kycgate/internal/identity/handler"
	"kycgate/internal/identity/provisioner"
	identityservice "kycgate/internal/identity/service"
	identitystore "kycgate/internal/identity/store"
	"kycgate/internal/platform/health"
	"kycgate/internal/platform/idempotency"
	"kycgate/internal/platform/middleware"
	httptransport "kycgate/internal/transport/http"
	auditmemory "kycgate/pkg/platform/audit/memory"
	"kycgate/pkg/platform/audit/publisher"
)

const (
	inProcessPackageID  = "0xe2e"
	inProcessIssuerDID  = chain.ObjectID("0xe2e1550e")
	inProcessAdminToken = "e2e-admin-token"
)

// newInProcessServer assembles the API the way cmd/server does, over an
// in-memory ledger and in-memory stores. No schema is configured, so the
// first issuance creates one.
func newInProcessServer() (*httptest.Server, *chaintest.Ledger) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ledger := chaintest.NewLedger()
	ledger.Put(inProcessIssuerDID, inProcessPackageID+provisioner.ObjectType)
	gateway := ledger.Gateway(chain.WithLogger(logger))
	key := chaintest.NewSigner()

	subjects := identitystore.New()
	credentials := credentialstore.New()
	auditor := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	idem := idempotency.Middleware(idempotency.NewInMemory(idempotency.DefaultTTL), logger)

	schemas := schema.New(gateway, key, inProcessPackageID, schema.WithLogger(logger))
	vcIssuer := issuer.New(gateway, schemas, key, issuer.Config{
		PackageID: inProcessPackageID,
		IssuerDID: inProcessIssuerDID,
	}, issuer.WithLogger(logger))

	identitySvc := identityservice.NewService(subjects,
		provisioner.New(gateway, key, inProcessPackageID, provisioner.WithLogger(logger)),
		auditor,
		identityservice.WithLogger(logger),
	)
	credentialSvc := credentialservice.NewService(credentials, subjects, vcIssuer,
		verifier.New(credentials),
		auditor,
		credentialservice.WithLogger(logger),
	)

	healthHandler := health.New("e2e")
	healthHandler.RegisterCheck("sui_rpc", gateway.Ping)

	router := httptransport.NewRouter(httptransport.Config{
		Logger: logger,
		Health: healthHandler,
		Users: []httptransport.Registrar{
			identityhandler.New(identitySvc, logger, identityhandler.WithIdempotency(idem)),
			credentialhandler.New(credentialSvc, logger,
				credentialhandler.WithIdempotency(idem),
				credentialhandler.WithAdmin(middleware.RequireAdminToken(inProcessAdminToken, logger)),
			),
		},
	})
	return httptest.NewServer(router), ledger
}
