package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"kycgate/pkg/platform/audit"
	"kycgate/pkg/platform/audit/outbox"
)

// maxClaim caps a single lease so one worker cannot starve the others.
const maxClaim = 500

// Store keeps the outbox in the audit_outbox table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Enqueue(ctx context.Context, entry *outbox.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, subject, action, payload, queued_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.Subject, string(entry.Action), entry.Payload, entry.QueuedAt)
	if err != nil {
		return fmt.Errorf("enqueue audit event %s: %w", entry.Action, err)
	}
	return nil
}

// Claim leases rows in one statement. SKIP LOCKED keeps concurrent claims from
// blocking on each other, and the lease column keeps them from overlapping
// once the statement commits.
func (s *Store) Claim(ctx context.Context, limit int, lease time.Duration) ([]*outbox.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	limit = min(limit, maxClaim)

	rows, err := s.db.QueryContext(ctx, `
		UPDATE audit_outbox SET leased_until = NOW() + make_interval(secs => $2)
		WHERE id IN (
			SELECT id FROM audit_outbox
			WHERE published_at IS NULL
			  AND (leased_until IS NULL OR leased_until < NOW())
			ORDER BY queued_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, subject, action, payload, queued_at, attempts, COALESCE(last_error, '')
	`, limit, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("claim audit outbox entries: %w", err)
	}
	defer rows.Close()

	var claimed []*outbox.Entry
	for rows.Next() {
		var (
			e      outbox.Entry
			action string
		)
		if err := rows.Scan(&e.ID, &e.Subject, &action, &e.Payload, &e.QueuedAt, &e.Attempts, &e.LastError); err != nil {
			return nil, fmt.Errorf("scan audit outbox entry: %w", err)
		}
		e.Action = audit.AuditEvent(action)
		claimed = append(claimed, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim audit outbox entries: %w", err)
	}
	// RETURNING does not follow the subquery order.
	slices.SortFunc(claimed, func(a, b *outbox.Entry) int {
		return a.QueuedAt.Compare(b.QueuedAt)
	})
	return claimed, nil
}

func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.updateOne(ctx, "mark audit outbox entry published", `
		UPDATE audit_outbox SET published_at = $2, leased_until = NULL
		WHERE id = $1 AND published_at IS NULL
	`, id, at)
}

func (s *Store) Release(ctx context.Context, id uuid.UUID, cause string) error {
	return s.updateOne(ctx, "release audit outbox entry", `
		UPDATE audit_outbox SET leased_until = NULL, attempts = attempts + 1, last_error = $2
		WHERE id = $1 AND published_at IS NULL
	`, id, cause)
}

func (s *Store) updateOne(ctx context.Context, op, query string, id uuid.UUID, arg any) error {
	res, err := s.db.ExecContext(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: entry %s unknown or already published", op, id)
	}
	return nil
}

func (s *Store) Backlog(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_outbox WHERE published_at IS NULL`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit outbox backlog: %w", err)
	}
	return n, nil
}

func (s *Store) PurgePublished(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_outbox WHERE published_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge published audit events: %w", err)
	}
	return res.RowsAffected()
}

var _ outbox.Store = (*Store)(nil)
