package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("key not found")

// Store is the persisted key-value store the mobile app keeps its session in.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// MemoryStore implements Store with an in-memory map, suitable for tests.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied entries.
func NewMemoryStore(items map[string]string) *MemoryStore {
	copied := make(map[string]string, len(items))
	for k, v := range items {
		copied[k] = v
	}
	return &MemoryStore{items: copied}
}

// Get looks up a key.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.items[key] = value
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
