package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"kycgate/internal/credential/models"
	"kycgate/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists credential mirror records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, subject_address, claims, issued_at, on_chain_id, transaction_digest, revoked, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, record *models.CredentialRecord) error {
	if record == nil {
		return fmt.Errorf("credential record is required")
	}
	claims, err := json.Marshal(record.Claims)
	if err != nil {
		return fmt.Errorf("marshal claims: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vc_credentials (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, record.ID, record.SubjectAddress, claims, record.IssuedAt, record.OnChainID,
		record.TransactionDigest, record.Revoked, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.CredentialRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM vc_credentials
		WHERE id = $1
	`, models.NormalizeMirrorKey(id))
	return scanRecord(row)
}

func (s *PostgresStore) FindActive(ctx context.Context, subject, onChainID string) (*models.CredentialRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM vc_credentials
		WHERE subject_address = $1 AND on_chain_id = $2 AND revoked = FALSE
		ORDER BY issued_at DESC
		LIMIT 1
	`, subject, onChainID)
	return scanRecord(row)
}

func (s *PostgresStore) FindActiveByKey(ctx context.Context, subject, key string) (*models.CredentialRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM vc_credentials
		WHERE subject_address = $1 AND id = $2 AND revoked = FALSE
	`, subject, models.NormalizeMirrorKey(key))
	return scanRecord(row)
}

func (s *PostgresStore) ListActive(ctx context.Context, subject string) ([]*models.CredentialRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM vc_credentials
		WHERE subject_address = $1 AND revoked = FALSE
		ORDER BY issued_at DESC, id DESC
	`, subject)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	records := make([]*models.CredentialRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return records, nil
}

// Revoke flips the terminal revoked flag. The conditional update keeps
// concurrent revocations from both succeeding.
func (s *PostgresStore) Revoke(ctx context.Context, id string, at time.Time) (*models.CredentialRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE vc_credentials
		SET revoked = TRUE, updated_at = $2
		WHERE id = $1 AND revoked = FALSE
		RETURNING `+recordColumns,
		models.NormalizeMirrorKey(id), at)
	record, err := scanRecord(row)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("revoke credential: %w", err)
	}
	if _, findErr := s.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.CredentialRecord, error) {
	var (
		record models.CredentialRecord
		claims []byte
	)
	err := row.Scan(&record.ID, &record.SubjectAddress, &claims, &record.IssuedAt, &record.OnChainID,
		&record.TransactionDigest, &record.Revoked, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	if err := json.Unmarshal(claims, &record.Claims); err != nil {
		return nil, fmt.Errorf("unmarshal claims: %w", err)
	}
	return &record, nil
}
