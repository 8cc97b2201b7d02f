// Package cache provides the TTL key-value layer game snapshots live in,
// with Redis and local-file backends selected by caller configuration.
package cache

import (
	"context"
	"time"
)

// KV is the narrow key-value surface the game store depends on. Get and MGet
// return nil values (not errors) for missing keys.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
	MSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error
}
