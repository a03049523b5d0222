package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"kycgate/pkg/platform/audit/outbox"
)

type slot struct {
	entry       outbox.Entry
	leasedUntil time.Time
}

// Store keeps the outbox in process. It backs the worker when Kafka is
// configured without a database; queued events do not survive a restart.
type Store struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*slot
	now   func() time.Time
}

func New() *Store {
	return &Store{slots: make(map[uuid.UUID]*slot), now: time.Now}
}

func (s *Store) Enqueue(_ context.Context, entry *outbox.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.slots[entry.ID]; dup {
		return fmt.Errorf("outbox entry %s already queued", entry.ID)
	}
	s.slots[entry.ID] = &slot{entry: *entry}
	return nil
}

func (s *Store) Claim(_ context.Context, limit int, lease time.Duration) ([]*outbox.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var free []*slot
	for _, sl := range s.slots {
		if !sl.entry.Published() && !sl.leasedUntil.After(now) {
			free = append(free, sl)
		}
	}
	slices.SortFunc(free, func(a, b *slot) int {
		return a.entry.QueuedAt.Compare(b.entry.QueuedAt)
	})
	if len(free) > limit {
		free = free[:limit]
	}

	claimed := make([]*outbox.Entry, 0, len(free))
	for _, sl := range free {
		sl.leasedUntil = now.Add(lease)
		cp := sl.entry
		claimed = append(claimed, &cp)
	}
	return claimed, nil
}

func (s *Store) MarkPublished(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[id]
	if !ok || sl.entry.Published() {
		return fmt.Errorf("outbox entry %s unknown or already published", id)
	}
	sl.entry.PublishedAt = &at
	sl.leasedUntil = time.Time{}
	return nil
}

func (s *Store) Release(_ context.Context, id uuid.UUID, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[id]
	if !ok || sl.entry.Published() {
		return fmt.Errorf("outbox entry %s unknown or already published", id)
	}
	sl.leasedUntil = time.Time{}
	sl.entry.Attempts++
	sl.entry.LastError = cause
	return nil
}

func (s *Store) Backlog(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sl := range s.slots {
		if !sl.entry.Published() {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgePublished(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sl := range s.slots {
		if sl.entry.Published() && sl.entry.PublishedAt.Before(before) {
			delete(s.slots, id)
			n++
		}
	}
	return n, nil
}

// Entry returns a copy of a queued entry, published or not.
func (s *Store) Entry(id uuid.UUID) (outbox.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[id]
	if !ok {
		return outbox.Entry{}, false
	}
	return sl.entry, true
}

var _ outbox.Store = (*Store)(nil)
