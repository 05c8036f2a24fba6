package storage

import (
	"context"
	"sync"

	"github.com/erp/catalog-console/internal/domain/identity"
)

// MemoryStorage keeps the session in process memory. It does not survive a
// restart and is meant for tests and throwaway consoles.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool
}

var _ identity.SessionStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get implements identity.SessionStorage
func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, identity.ErrStorageClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements identity.SessionStorage
func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return identity.ErrStorageClosed
	}
	s.values[key] = value
	return nil
}

// Delete implements identity.SessionStorage
func (s *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return identity.ErrStorageClosed
	}
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// Close implements identity.SessionStorage
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
