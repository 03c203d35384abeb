package memstore

import (
	"context"
	"fmt"
	"sync"

	"token_portfolio/internal/app/port"
)

// Store keeps snapshots in process memory. Contents are lost on exit.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Load returns a copy of the bytes saved under key.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[key]
	if !ok {
		return nil, fmt.Errorf("memstore load %q: %w", key, port.ErrSnapshotNotFound)
	}
	return append([]byte(nil), b...), nil
}

// Save stores a copy of data.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
