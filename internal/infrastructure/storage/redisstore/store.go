package redisstore

import (
	"context"
	"errors"
	"fmt"

	"token_portfolio/internal/app/port"

	"github.com/redis/go-redis/v9"
)

// Store keeps snapshots as plain string values.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

// New wraps an existing client. prefix is prepended to every key as "<prefix>:<key>".
func New(rdb redis.UniversalClient, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// Dial connects to addr and pings it once.
func Dial(ctx context.Context, addr, password string, db int, prefix string) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(rdb, prefix), nil
}

func (s *Store) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Load GETs key, port.ErrSnapshotNotFound on redis.Nil.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis load %q: %w", key, port.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis load %q: %w", key, err)
	}
	return b, nil
}

// Save SETs key without expiry.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if err := s.rdb.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis save %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.rdb.Close() }
