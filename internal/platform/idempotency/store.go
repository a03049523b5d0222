// Package idempotency replays the first response for a repeated
// Idempotency-Key so client retries never resubmit a ledger transaction.
package idempotency

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultTTL is how long completed responses are replayed.
const DefaultTTL = 24 * time.Hour

// DefaultLockTTL bounds how long an in-flight request holds its key. It must
// outlast a chain round trip.
const DefaultLockTTL = 2 * time.Minute

// CachedResponse represents a cached response for idempotency.
type CachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// Store provides idempotency key storage for preventing duplicate request processing.
type Store interface {
	// Get retrieves a cached response for the given idempotency key.
	// Returns nil if not found or expired.
	Get(ctx context.Context, key string) (*CachedResponse, error)

	// Set stores a response for the given idempotency key with TTL.
	Set(ctx context.Context, key string, response *CachedResponse) error

	// Reserve marks key as in flight. It returns false when another request
	// already holds it.
	Reserve(ctx context.Context, key string) (bool, error)

	// Release drops the in-flight marker.
	Release(ctx context.Context, key string) error
}
