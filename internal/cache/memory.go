package cache

import (
	"context"
	"sync"

	"github.com/labsignal/evidence-service/internal/domain"
)

// MemoryStore is a process-local Store for deployments without Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, doi string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[doi]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.DOI] = record
	return nil
}

// Len returns the number of cached DOIs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
