// Package filestore keeps each snapshot in its own JSON file under a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"token_portfolio/internal/app/port"
)

// Store maps each key to <dir>/<key>.json.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates dir if needed.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key)+".json")
}

// Load reads the file for key, port.ErrSnapshotNotFound when it does not exist.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("filestore load %q: %w", key, port.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("filestore load %q: %w", key, err)
	}
	return b, nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers never observe a half-written snapshot.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, filepath.Base(key)+".*.tmp")
	if err != nil {
		return fmt.Errorf("filestore save %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("filestore save %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("filestore save %q: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("filestore save %q: %w", key, err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
