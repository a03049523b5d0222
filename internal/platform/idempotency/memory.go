package idempotency

import (
	"context"
	"sync"
	"time"
)

// InMemory provides an in-memory idempotency store. Expired entries are
// swept on write.
type InMemory struct {
	mu       sync.Mutex
	entries  map[string]*CachedResponse
	inflight map[string]time.Time
	ttl      time.Duration
	lockTTL  time.Duration
	now      func() time.Time
}

// NewInMemory creates an in-memory idempotency store with the given TTL.
func NewInMemory(ttl time.Duration) *InMemory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemory{
		entries:  make(map[string]*CachedResponse),
		inflight: make(map[string]time.Time),
		ttl:      ttl,
		lockTTL:  DefaultLockTTL,
		now:      time.Now,
	}
}

// Get retrieves a cached response for the given idempotency key.
func (s *InMemory) Get(_ context.Context, key string) (*CachedResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || s.now().After(entry.ExpiresAt) {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

// Set stores a response for the given idempotency key.
func (s *InMemory) Set(_ context.Context, key string, response *CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	cp := *response
	cp.ExpiresAt = s.now().Add(s.ttl)
	s.entries[key] = &cp
	return nil
}

func (s *InMemory) Reserve(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if until, ok := s.inflight[key]; ok && now.Before(until) {
		return false, nil
	}
	s.inflight[key] = now.Add(s.lockTTL)
	return true, nil
}

func (s *InMemory) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
	return nil
}

func (s *InMemory) sweep() {
	now := s.now()
	for key, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, key)
		}
	}
	for key, until := range s.inflight {
		if now.After(until) {
			delete(s.inflight, key)
		}
	}
}
