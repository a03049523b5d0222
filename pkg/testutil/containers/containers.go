//go:build integration

// Package containers starts the backing services integration tests run
// against: PostgreSQL with the kycgate schema, Kafka for audit events, and
// Redis for idempotency keys. Each fixture starts on first use and is shared
// by every suite in the test binary; Ryuk removes the containers when the
// process exits, so fixtures never register their own cleanup.
package containers

import (
	"sync"
	"testing"
)

type shared[T any] struct {
	mu  sync.Mutex
	val *T
}

func (s *shared[T]) get(t *testing.T, start func(*testing.T) *T) *T {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.val == nil {
		s.val = start(t)
	}
	return s.val
}

var (
	sharedPostgres shared[PostgresContainer]
	sharedKafka    shared[KafkaContainer]
	sharedRedis    shared[RedisContainer]
)

// Postgres returns the shared database with all migrations applied.
func Postgres(t *testing.T) *PostgresContainer {
	t.Helper()
	return sharedPostgres.get(t, startPostgres)
}

// Kafka returns the shared broker.
func Kafka(t *testing.T) *KafkaContainer {
	t.Helper()
	return sharedKafka.get(t, startKafka)
}

// Redis returns the shared Redis server.
func Redis(t *testing.T) *RedisContainer {
	t.Helper()
	return sharedRedis.get(t, startRedis)
}
