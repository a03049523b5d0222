//go:build integration

package containers

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"kycgate/internal/platform/database"
	"kycgate/migrations"
)

// appTables lists every migrated table, children first.
var appTables = []string{"audit_outbox", "vc_credentials", "subjects"}

type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

func startPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:18-alpine",
		postgres.WithDatabase("kycgate_test"),
		postgres.WithUsername("kycgate"),
		postgres.WithPassword("kycgate_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("postgres dsn: %v", err)
	}

	// same pool and migration path the server uses at startup
	pool, err := database.Open(ctx, database.DefaultConfig(dsn))
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("open postgres: %v", err)
	}
	if _, err := pool.Migrate(ctx, migrations.FS); err != nil {
		_ = pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("migrate postgres: %v", err)
	}
	return &PostgresContainer{Container: container, DSN: dsn, DB: pool.DB()}
}

// Reset empties every application table.
func (p *PostgresContainer) Reset(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(appTables, ", ")+" CASCADE")
	return err
}

// NewSubject registers a subject without a DID and returns its address.
func (p *PostgresContainer) NewSubject(ctx context.Context, t testing.TB) string {
	t.Helper()
	address := "0x" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO subjects (address, handle, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`, address, "user_"+address[:8])
	if err != nil {
		t.Fatalf("insert subject: %v", err)
	}
	return address
}
