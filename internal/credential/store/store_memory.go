package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"kycgate/internal/credential/models"
	"kycgate/pkg/platform/sentinel"
)

// Error Contract:
// - Lookups return sentinel.ErrNotFound when no matching record exists
// - Save returns sentinel.ErrAlreadyExists on a duplicate mirror key
// - Revoke returns sentinel.ErrInvalidState for an already revoked record

// InMemoryStore keeps credential mirror records in memory for tests and
// database-less runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*models.CredentialRecord
}

// New constructs an empty in-memory credential store.
func New() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*models.CredentialRecord)}
}

func (s *InMemoryStore) Save(_ context.Context, record *models.CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[models.NormalizeMirrorKey(id)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *InMemoryStore) FindActive(_ context.Context, subject, onChainID string) (*models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.SubjectAddress == subject && record.OnChainID == onChainID && !record.Revoked {
			cp := *record
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindActiveByKey(_ context.Context, subject, key string) (*models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[models.NormalizeMirrorKey(key)]
	if !ok || record.SubjectAddress != subject || record.Revoked {
		return nil, sentinel.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

// ListActive returns the subject's unrevoked records, newest issuance first.
func (s *InMemoryStore) ListActive(_ context.Context, subject string) ([]*models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.CredentialRecord, 0)
	for _, record := range s.records {
		if record.SubjectAddress != subject || record.Revoked {
			continue
		}
		cp := *record
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IssuedAt.Equal(result[j].IssuedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].IssuedAt.After(result[j].IssuedAt)
	})
	return result, nil
}

func (s *InMemoryStore) Revoke(_ context.Context, id string, at time.Time) (*models.CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[models.NormalizeMirrorKey(id)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if record.Revoked {
		return nil, sentinel.ErrInvalidState
	}
	record.Revoked = true
	record.UpdatedAt = at
	cp := *record
	return &cp, nil
}
