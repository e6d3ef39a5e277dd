// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// keyPrefix namespaces discovery entries inside a shared Redis.
const keyPrefix = "waypoint:discover:"

// Redis is a cache backed by a Redis server, for deployments where
// several engine instances should share one result cache. TTL is
// delegated to Redis expiry; capacity and recency eviction are the
// server's maxmemory policy (allkeys-lru recommended), so Evictions
// stays zero here. Values are gzip-compressed JSON.
type Redis struct {
	client *redis.Client

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedis connects a Redis-backed cache using cfg.RedisAddr.
func NewRedis(cfg types.CacheConfig) (*Redis, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis cache backend requires cache.redis_addr")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &Redis{client: client}, nil
}

// Get fetches and decodes the entry for key. redis.Nil is a plain miss.
func (r *Redis) Get(ctx context.Context, key string) ([]types.MergedRecord, bool, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		r.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	decompressed, err := decompress(val)
	if err != nil {
		return nil, false, fmt.Errorf("decompressing cache entry: %w", err)
	}

	var records []types.MergedRecord
	if err := json.Unmarshal(decompressed, &records); err != nil {
		return nil, false, fmt.Errorf("decoding cache entry: %w", err)
	}

	r.hits.Add(1)
	return records, true, nil
}

// Put stores records under key with a Redis-side TTL.
func (r *Redis) Put(ctx context.Context, key string, records []types.MergedRecord, ttl time.Duration) error {
	val, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	compressed, err := compress(val)
	if err != nil {
		return fmt.Errorf("compressing cache entry: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+key, compressed, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate deletes the entry for key.
func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Stats reports the client-side hit/miss counters.
func (r *Redis) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }

func compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
