// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by providers that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "waypoint-engine/0.1"). Per prd004-providers R5.1.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig holds settings for the provider clients.
// Per prd004-providers R1.1-R1.5, R5.1-R5.4.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// PerProviderTimeout bounds each provider call during aggregation
	// (default 5s). A provider that exceeds it is recorded as a timeout
	// outcome, never retried.
	PerProviderTimeout time.Duration `json:"per_provider_timeout" yaml:"per_provider_timeout"`

	// MaxResults is the per-provider result limit passed to APIs that
	// support one (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableOverpass controls the OpenStreetMap Overpass provider.
	EnableOverpass bool `json:"enable_overpass" yaml:"enable_overpass"`

	// EnableOpenTripMap controls the OpenTripMap heritage provider.
	EnableOpenTripMap bool `json:"enable_opentripmap" yaml:"enable_opentripmap"`

	// EnableINaturalist controls the iNaturalist wildlife provider.
	EnableINaturalist bool `json:"enable_inaturalist" yaml:"enable_inaturalist"`

	// OpenTripMapAPIKey authenticates OpenTripMap requests.
	OpenTripMapAPIKey string `json:"opentripmap_api_key,omitempty" yaml:"opentripmap_api_key,omitempty"`

	// LocalDatasetPath points at an optional SQLite POI dataset; empty
	// disables the local provider.
	LocalDatasetPath string `json:"local_dataset_path,omitempty" yaml:"local_dataset_path,omitempty"`
}

// MergeConfig holds the dedup thresholds and tie-break order for the
// merge engine. Per prd002-merge R1.1-R1.4, R2.5.
type MergeConfig struct {
	// ProximityMeters is the maximum distance between two records that
	// may still be judged the same place (default 50).
	ProximityMeters float64 `json:"proximity_meters" yaml:"proximity_meters"`

	// NameSimilarity is the minimum normalized-name similarity in [0,1]
	// for two records to be judged duplicates (default 0.6).
	NameSimilarity float64 `json:"name_similarity" yaml:"name_similarity"`

	// NeutralRating substitutes for a missing provider rating
	// (default 0.5).
	NeutralRating float64 `json:"neutral_rating" yaml:"neutral_rating"`

	// ProviderPriority is the fixed tie-break order when duplicate
	// records carry equal ratings. Providers absent from the list sort
	// after listed ones, by name. Never iteration order.
	ProviderPriority []string `json:"provider_priority" yaml:"provider_priority"`
}

// CacheBackend selects the result cache implementation.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// CacheConfig holds settings for the result cache.
// Per prd003-cache R1.1-R1.5.
type CacheConfig struct {
	// Backend selects the cache implementation: memory or redis.
	Backend CacheBackend `json:"backend" yaml:"backend"`

	// Capacity bounds the number of cached queries for the memory
	// backend (default 256). Least-recently-read entries are evicted
	// first.
	Capacity int `json:"capacity" yaml:"capacity"`

	// TTL is how long an aggregation result stays fresh (default 5m).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// RedisAddr is the host:port of the Redis server for the redis
	// backend.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`

	// RedisPassword authenticates the Redis connection.
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`

	// RedisDB selects the Redis logical database.
	RedisDB int `json:"redis_db" yaml:"redis_db"`
}

// DiscoveryConfig groups all stage configurations for the pipeline.
// The core packages receive these structs explicitly; they never read
// viper or the environment themselves.
type DiscoveryConfig struct {
	Providers ProviderConfig `json:"providers" yaml:"providers"`
	Merge     MergeConfig    `json:"merge" yaml:"merge"`
	Cache     CacheConfig    `json:"cache" yaml:"cache"`
}

// Defaults fills zero-valued fields with the documented defaults and
// returns the config.
func (c DiscoveryConfig) Defaults() DiscoveryConfig {
	if c.Providers.Timeout <= 0 {
		c.Providers.Timeout = 10 * time.Second
	}
	if c.Providers.UserAgent == "" {
		c.Providers.UserAgent = "waypoint-engine/0.1"
	}
	if c.Providers.PerProviderTimeout <= 0 {
		c.Providers.PerProviderTimeout = 5 * time.Second
	}
	if c.Providers.MaxResults <= 0 {
		c.Providers.MaxResults = 50
	}
	if c.Merge.ProximityMeters <= 0 {
		c.Merge.ProximityMeters = 50
	}
	if c.Merge.NameSimilarity <= 0 {
		c.Merge.NameSimilarity = 0.6
	}
	if c.Merge.NeutralRating <= 0 {
		c.Merge.NeutralRating = 0.5
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = 256
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	return c
}
