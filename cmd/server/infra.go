package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	credentialservice "kycgate/internal/credential/service"
	credentialstore "kycgate/internal/credential/store"
	identityservice "kycgate/internal/identity/service"
	identitystore "kycgate/internal/identity/store"
	"kycgate/internal/platform/config"
	"kycgate/internal/platform/database"
	"kycgate/internal/platform/health"
	"kycgate/internal/platform/idempotency"
	"kycgate/internal/platform/kafka"
	"kycgate/internal/platform/kafka/producer"
	"kycgate/internal/platform/redis"
	"kycgate/migrations"
	"kycgate/pkg/platform/audit"
	auditmemory "kycgate/pkg/platform/audit/memory"
	auditmetrics "kycgate/pkg/platform/audit/metrics"
	"kycgate/pkg/platform/audit/outbox"
	outboxmetrics "kycgate/pkg/platform/audit/outbox/metrics"
	outboxmemory "kycgate/pkg/platform/audit/outbox/store/memory"
	outboxpostgres "kycgate/pkg/platform/audit/outbox/store/postgres"
	"kycgate/pkg/platform/audit/outbox/worker"
	"kycgate/pkg/platform/audit/publisher"
)

// infra holds the optional backing services. Each falls back to an in-memory
// implementation when its URL is not configured.
type infra struct {
	db       *database.Pool
	redis    *redis.Client
	producer *producer.Producer
	worker   *worker.Worker

	subjects    identityservice.Store
	credentials credentialservice.Store
	idempotency idempotency.Store
	auditor     *publisher.Publisher
}

func newInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *infra, err error) {
	in := &infra{}
	defer func() {
		if err != nil {
			in.Close(log)
		}
	}()

	in.db, err = database.Open(ctx, database.DefaultConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, err
	}
	if in.db != nil {
		applied, err := in.db.Migrate(ctx, migrations.FS)
		if err != nil {
			return nil, err
		}
		if len(applied) > 0 {
			log.Info("applied migrations", "versions", applied)
		}
		if err := in.db.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return nil, fmt.Errorf("register database metrics: %w", err)
		}
		in.subjects = identitystore.NewPostgres(in.db.DB())
		in.credentials = credentialstore.NewPostgres(in.db.DB())
		log.Info("using postgres stores")
	} else {
		in.subjects = identitystore.New()
		in.credentials = credentialstore.New()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	in.redis, err = redis.New(ctx, redis.DefaultConfig(cfg.RedisURL))
	if err != nil {
		return nil, err
	}
	if in.redis != nil {
		if err := in.redis.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			return nil, fmt.Errorf("register redis metrics: %w", err)
		}
		in.idempotency = idempotency.NewRedis(in.redis.Client, idempotency.DefaultTTL)
	} else {
		in.idempotency = idempotency.NewInMemory(idempotency.DefaultTTL)
	}

	sink, err := in.auditSink(cfg, log)
	if err != nil {
		return nil, err
	}
	in.auditor = publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(256),
		publisher.WithPublisherLogger(log),
		publisher.WithMetrics(auditmetrics.New(prometheus.DefaultRegisterer)),
	)
	return in, nil
}

// auditSink routes audit events into the outbox when there is somewhere for
// them to go, and into an in-memory log otherwise.
func (in *infra) auditSink(cfg *config.Config, log *slog.Logger) (audit.Store, error) {
	var store outbox.Store
	switch {
	case in.db != nil:
		store = outboxpostgres.New(in.db.DB())
	case cfg.KafkaBrokers != "":
		store = outboxmemory.New()
	default:
		return auditmemory.NewInMemoryStore(), nil
	}

	if cfg.KafkaBrokers != "" {
		prod, err := producer.New(producer.DefaultConfig(cfg.KafkaBrokers), log)
		if err != nil {
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		in.producer = prod
		in.worker = worker.New(store, prod,
			worker.WithTopic(cfg.AuditTopic),
			worker.WithMetrics(outboxmetrics.New(prometheus.DefaultRegisterer)),
			worker.WithLogger(log),
		)
		in.worker.Start()
		log.Info("outbox worker started", "topic", cfg.AuditTopic)
	}
	return outbox.NewSink(store), nil
}

func (in *infra) registerChecks(h *health.Handler) {
	if in.db != nil {
		h.RegisterCheck("database", in.db.Health)
	}
	if in.redis != nil {
		h.RegisterCheck("redis", in.redis.Health)
	}
	if in.producer != nil {
		// the outbox holds audit events while Kafka is away
		kc := kafka.NewHealthCheck(in.producer)
		h.RegisterOptionalCheck(kc.Name(), kc.Check)
	}
}

// housekeep refreshes the outbox backlog gauge and purges published entries
// until ctx is done. Pool metrics are read at scrape time instead.
func (in *infra) housekeep(ctx context.Context, period time.Duration, log *slog.Logger) {
	if in.worker == nil {
		return
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := in.worker.Housekeep(ctx); err != nil {
				log.Warn("audit outbox housekeeping failed", "error", err)
			}
		}
	}
}

// Close releases resources in reverse dependency order.
func (in *infra) Close(log *slog.Logger) {
	if in.auditor != nil {
		in.auditor.Close()
	}
	if in.worker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := in.worker.Stop(ctx); err != nil {
			log.Error("outbox worker stop failed", "error", err)
		}
		cancel()
	}
	if in.producer != nil {
		if err := in.producer.Close(); err != nil {
			log.Error("kafka producer close failed", "error", err)
		}
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Error("redis close failed", "error", err)
		}
	}
	if err := in.db.Close(); err != nil {
		log.Error("database close failed", "error", err)
	}
}
