package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache is a local-filesystem KV with per-entry TTLs, for development
// and single-instance deployments without Redis. Each key is one JSON file
// holding the value plus its expiry envelope.
type FileCache struct {
	dir string
}

type fileEnvelope struct {
	Value    json.RawMessage `json:"_value"`
	CachedAt time.Time       `json:"_cached_at"`
	TTL      float64         `json:"_ttl"`
}

// NewFileCache creates a file cache rooted at dir. An empty dir defaults to
// a subdirectory of the OS temp dir.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "nfl_kv_cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (fc *FileCache) keyToPath(key string) string {
	safe := strings.NewReplacer(":", "_", "/", "_").Replace(key)
	return filepath.Join(fc.dir, safe+".json")
}

// Get returns the value for key, or (nil, nil) when missing or expired.
// Expired entries are removed on read.
func (fc *FileCache) Get(ctx context.Context, key string) ([]byte, error) {
	path := fc.keyToPath(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil
	}
	if !env.CachedAt.IsZero() && env.TTL > 0 {
		if time.Since(env.CachedAt) > time.Duration(env.TTL*float64(time.Second)) {
			os.Remove(path)
			return nil, nil
		}
	}
	return env.Value, nil
}

// Set writes the value for key with the given TTL.
func (fc *FileCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	env := fileEnvelope{
		Value:    json.RawMessage(value),
		CachedAt: time.Now(),
		TTL:      ttl.Seconds(),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return os.WriteFile(fc.keyToPath(key), raw, 0o644)
}

// MGet reads each key in turn; positions of missing keys hold nil.
func (fc *FileCache) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		val, err := fc.Get(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// MSet writes each item in turn with a shared TTL.
func (fc *FileCache) MSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	for k, v := range items {
		if err := fc.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}
