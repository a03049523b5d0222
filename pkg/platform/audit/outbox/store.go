package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store queues audit entries until a worker publishes them. Implementations
// must be safe for concurrent use by several workers.
type Store interface {
	Enqueue(ctx context.Context, entry *Entry) error

	// Claim leases up to limit unpublished entries, oldest first. A leased
	// entry is invisible to other workers until the lease runs out, so a
	// worker that dies mid-batch only delays its entries.
	Claim(ctx context.Context, limit int, lease time.Duration) ([]*Entry, error)

	// MarkPublished fails if the entry is unknown or already published.
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error

	// Release drops the lease after a failed publish and records the cause.
	Release(ctx context.Context, id uuid.UUID, cause string) error

	// Backlog counts unpublished entries, leased or not.
	Backlog(ctx context.Context) (int64, error)

	// PurgePublished deletes entries published before the cutoff.
	PurgePublished(ctx context.Context, before time.Time) (int64, error)
}
