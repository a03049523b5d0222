package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"kycgate/internal/identity/models"
	"kycgate/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists subjects in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, subject *models.Subject) error {
	var did sql.NullString
	if subject.DIDObjectID != "" {
		did = sql.NullString{String: subject.DIDObjectID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subjects (address, handle, did_object_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, subject.Address, subject.Handle, did, subject.CreatedAt, subject.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByAddress(ctx context.Context, address string) (*models.Subject, error) {
	var (
		subject models.Subject
		did     sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT address, handle, did_object_id, created_at, updated_at
		FROM subjects
		WHERE address = $1
	`, address).Scan(&subject.Address, &subject.Handle, &did, &subject.CreatedAt, &subject.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	subject.DIDObjectID = did.String
	return &subject, nil
}

// SetDID attaches a DID only while none is set, so a concurrent provisioning
// cannot overwrite the first one.
func (s *PostgresStore) SetDID(ctx context.Context, address, didObjectID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subjects
		SET did_object_id = $2, updated_at = $3
		WHERE address = $1 AND did_object_id IS NULL
	`, address, didObjectID, at)
	if err != nil {
		return fmt.Errorf("set subject did: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set subject did: %w", err)
	}
	if n == 1 {
		return nil
	}
	if _, err := s.FindByAddress(ctx, address); err != nil {
		return err
	}
	return sentinel.ErrInvalidState
}
