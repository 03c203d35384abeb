package port

import (
	"context"
	"errors"
)

// ErrSnapshotNotFound is returned by SnapshotStorage.Load when nothing was saved under the key yet.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStorage is durable key-value storage for the serialized portfolio snapshot.
type SnapshotStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}
