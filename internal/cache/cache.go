// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache memoizes aggregation output per normalized query key,
// bounded by capacity (LRU) and per-entry TTL.
// Implements: prd003-cache (R1-R4);
//
//	docs/ARCHITECTURE § Result Cache.
package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// Cache stores ranked results keyed by normalized query. A cached value
// is returned only while younger than its TTL; past expiry the entry is
// a miss, whether or not it has been swept yet. Implementations are
// safe for concurrent use; concurrent Put for the same key is
// last-writer-wins.
type Cache interface {
	// Get returns the cached records for key and whether the entry was
	// present and fresh. A hit refreshes the entry's recency.
	Get(ctx context.Context, key string) ([]types.MergedRecord, bool, error)

	// Put stores records under key with the given TTL, replacing any
	// existing entry.
	Put(ctx context.Context, key string, records []types.MergedRecord, ttl time.Duration) error

	// Invalidate removes the entry for key if present.
	Invalidate(ctx context.Context, key string) error

	// Stats reports cumulative hit/miss/eviction counts.
	Stats() Stats
}

// Stats holds cumulative cache counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
}

// clock is the package time source so tests can freeze TTL behavior via
// SetClock. Production code uses the real clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// New builds a Cache from config: the in-process memory cache by
// default, or a Redis-backed cache when cfg.Backend is redis.
func New(cfg types.CacheConfig) (Cache, error) {
	if cfg.Backend == types.CacheRedis {
		return NewRedis(cfg)
	}
	return NewMemory(cfg.Capacity), nil
}
