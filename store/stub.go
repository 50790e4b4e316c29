package store

import (
	"context"
	"fmt"
	"sync"
)

// StubStore records writes in memory for testing.
type StubStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

// NewStubStore creates an empty in-memory store.
func NewStubStore() *StubStore {
	return &StubStore{Objects: make(map[string][]byte)}
}

// Put implements Store by recording the write.
func (s *StubStore) Put(_ context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = append([]byte(nil), data...)
	return nil
}

// Get implements Store.
func (s *StubStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.Objects[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return data, nil
}

// Verify StubStore implements Store.
var _ Store = (*StubStore)(nil)
