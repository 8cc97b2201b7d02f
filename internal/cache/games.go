package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fortuna/gridiron/internal/analysis"
)

const (
	// GameTTL is how long finalized game snapshots live in the cache.
	GameTTL = 30 * 24 * time.Hour

	// CompletionDelay holds off caching a just-finished game so late stat
	// corrections from the feed still land in the snapshot.
	CompletionDelay = 30 * time.Minute
)

// GameStore reads and writes the per-game {meta, stats, plays} snapshot
// triad over an injected KV backend.
type GameStore struct {
	kv KV
}

// NewGameStore creates a game store over the given backend.
func NewGameStore(kv KV) *GameStore {
	return &GameStore{kv: kv}
}

func metaKey(gameID string) string  { return fmt.Sprintf("nfl:game:%s:meta", gameID) }
func statsKey(gameID string) string { return fmt.Sprintf("nfl:game:%s:stats", gameID) }
func playsKey(gameID string) string { return fmt.Sprintf("nfl:game:%s:plays", gameID) }

// GetGame fetches a cached snapshot triad. Returns (nil, nil, nil, nil) when
// the game is absent, the cache version does not match, or the cached status
// is not final; a stale or partial snapshot is never trusted.
func (s *GameStore) GetGame(ctx context.Context, gameID string) (*analysis.CacheMeta, *analysis.CacheStats, *analysis.CachePlays, error) {
	vals, err := s.kv.MGet(ctx, metaKey(gameID), statsKey(gameID), playsKey(gameID))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading cached game %s: %w", gameID, err)
	}
	if len(vals) != 3 || vals[0] == nil || vals[1] == nil || vals[2] == nil {
		return nil, nil, nil, nil
	}

	var meta analysis.CacheMeta
	if err := json.Unmarshal(vals[0], &meta); err != nil {
		return nil, nil, nil, nil
	}
	if meta.CacheVersion != analysis.CacheVersion || meta.Status != analysis.StatusFinal {
		return nil, nil, nil, nil
	}

	var stats analysis.CacheStats
	if err := json.Unmarshal(vals[1], &stats); err != nil {
		return nil, nil, nil, nil
	}
	var plays analysis.CachePlays
	if err := json.Unmarshal(vals[2], &plays); err != nil {
		return nil, nil, nil, nil
	}
	return &meta, &stats, &plays, nil
}

// CacheGame writes the snapshot triad for a finalized game.
func (s *GameStore) CacheGame(ctx context.Context, gameID string, meta analysis.CacheMeta,
	stats analysis.CacheStats, plays analysis.CachePlays) error {

	metaRaw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding meta for game %s: %w", gameID, err)
	}
	statsRaw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding stats for game %s: %w", gameID, err)
	}
	playsRaw, err := json.Marshal(plays)
	if err != nil {
		return fmt.Errorf("encoding plays for game %s: %w", gameID, err)
	}

	items := map[string][]byte{
		metaKey(gameID):  metaRaw,
		statsKey(gameID): statsRaw,
		playsKey(gameID): playsRaw,
	}
	if err := s.kv.MSet(ctx, items, GameTTL); err != nil {
		return fmt.Errorf("caching game %s: %w", gameID, err)
	}
	return nil
}

// ShouldCacheGame reports whether a final game is past the completion delay.
// A missing or unparseable last-play timestamp allows caching immediately.
func ShouldCacheGame(isFinal bool, lastPlayTime string) bool {
	if !isFinal {
		return false
	}
	if lastPlayTime == "" {
		return true
	}
	ts, err := time.Parse(time.RFC3339, lastPlayTime)
	if err != nil {
		return true
	}
	return time.Since(ts) > CompletionDelay
}
