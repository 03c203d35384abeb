// Package storage selects the SnapshotStorage backend named in the configuration.
package storage

import (
	"context"
	"fmt"

	"token_portfolio/internal/app/port"
	"token_portfolio/internal/infrastructure/configloader"
	"token_portfolio/internal/infrastructure/storage/filestore"
	"token_portfolio/internal/infrastructure/storage/memstore"
	"token_portfolio/internal/infrastructure/storage/redisstore"
	"token_portfolio/internal/infrastructure/storage/sqlitestore"
)

// ErrSnapshotNotFound is returned by every backend when the key was never saved.
var ErrSnapshotNotFound = port.ErrSnapshotNotFound

// Open builds the backend for cfg.Backend.
func Open(ctx context.Context, cfg configloader.StorageConfig, logger port.Logger) (port.SnapshotStorage, error) {
	switch cfg.Backend {
	case configloader.StorageBackendFile, "":
		logger.Info("Using file snapshot storage", "dir", cfg.Dir)
		return filestore.New(cfg.Dir)
	case configloader.StorageBackendSQLite:
		logger.Info("Using sqlite snapshot storage", "path", cfg.SQLiteDSN)
		return sqlitestore.New(cfg.SQLiteDSN)
	case configloader.StorageBackendRedis:
		logger.Info("Using redis snapshot storage", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
		return redisstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "token_portfolio")
	case configloader.StorageBackendMemory:
		logger.Warn("Using in-memory snapshot storage; portfolio will not survive restarts")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
