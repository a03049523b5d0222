package store

import (
	"context"
	"sync"
	"time"

	"kycgate/internal/identity/models"
	"kycgate/pkg/platform/sentinel"
)

// Error Contract:
// - FindByAddress and SetDID return sentinel.ErrNotFound for unknown subjects
// - Create returns sentinel.ErrAlreadyExists for a taken address or handle
// - SetDID returns sentinel.ErrInvalidState when a DID is already attached

// InMemoryStore keeps subjects in memory for tests and database-less runs.
type InMemoryStore struct {
	mu        sync.RWMutex
	byAddress map[string]*models.Subject
	handles   map[string]string
}

func New() *InMemoryStore {
	return &InMemoryStore{
		byAddress: make(map[string]*models.Subject),
		handles:   make(map[string]string),
	}
}

func (s *InMemoryStore) Create(_ context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byAddress[subject.Address]; ok {
		return sentinel.ErrAlreadyExists
	}
	if _, ok := s.handles[subject.Handle]; ok {
		return sentinel.ErrAlreadyExists
	}
	cp := *subject
	s.byAddress[subject.Address] = &cp
	s.handles[subject.Handle] = subject.Address
	return nil
}

func (s *InMemoryStore) FindByAddress(_ context.Context, address string) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.byAddress[address]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *subject
	return &cp, nil
}

func (s *InMemoryStore) SetDID(_ context.Context, address, didObjectID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, ok := s.byAddress[address]
	if !ok {
		return sentinel.ErrNotFound
	}
	if subject.DIDObjectID != "" {
		return sentinel.ErrInvalidState
	}
	subject.DIDObjectID = didObjectID
	subject.UpdatedAt = at
	return nil
}
