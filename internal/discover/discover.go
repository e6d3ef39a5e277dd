// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover composes the discovery pipeline: result cache in
// front of concurrent provider aggregation and the merge engine.
// Implements: prd001-aggregation, prd002-merge, prd003-cache
// (composed entry point); docs/ARCHITECTURE § Discovery Pipeline.
package discover

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/pdiddy/waypoint-engine/internal/aggregate"
	"github.com/pdiddy/waypoint-engine/internal/cache"
	"github.com/pdiddy/waypoint-engine/internal/merge"
	"github.com/pdiddy/waypoint-engine/internal/observability"
	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// Store runs queries through the cache, aggregator, and merge engine.
// Providers are injected per call; the store holds only the cache, the
// config, and the metrics sink.
type Store struct {
	cache   cache.Cache
	cfg     types.DiscoveryConfig
	metrics *observability.Metrics

	// evictionsSeen is the cache eviction count already exported to the
	// metrics counter; the delta is added after each Put.
	evictionsSeen atomic.Int64
}

// NewStore creates a discovery store. metrics may be nil to disable
// instrumentation.
func NewStore(c cache.Cache, cfg types.DiscoveryConfig, metrics *observability.Metrics) *Store {
	return &Store{cache: c, cfg: cfg.Defaults(), metrics: metrics}
}

// Result is the outcome of one discovery call.
type Result struct {
	// Records is the full ranked, deduplicated list. Never truncated
	// here; pagination belongs to the caller.
	Records []types.MergedRecord

	// Failures lists the providers that failed or timed out. A
	// non-empty Records with non-empty Failures is the normal partial
	// success case.
	Failures []aggregate.Outcome

	// CacheHit reports whether Records came from the cache, in which
	// case no providers were called and Failures is empty.
	CacheHit bool

	// Duration is the wall time of the whole call.
	Duration time.Duration
}

// AllFailed reports whether every provider failed, leaving no records.
// The caller decides whether that is a user-visible error.
func (r Result) AllFailed() bool {
	return len(r.Records) == 0 && len(r.Failures) > 0
}

// Fetch answers query from the cache when fresh, otherwise fans out to
// providers, merges, and caches the outcome. Provider failures never
// abort the call (R3.1). Two concurrent calls for the same expired key
// both aggregate and the last Put wins; the cache is never left in a
// corrupted state, only a duplicate fetch is wasted.
//
// scoring may be nil to use merge.DefaultScoring. Warnings stream to w.
func (s *Store) Fetch(ctx context.Context, query types.Query, providers []aggregate.Provider, scoring merge.ScoringFn, w io.Writer) (Result, error) {
	if query.IsEmpty() {
		return Result{}, fmt.Errorf("query is empty: provide a point, area, or route")
	}

	start := time.Now()
	key := query.Key()

	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		// A broken cache degrades to a plain aggregation, it does not
		// fail the query.
		fmt.Fprintf(w, "warning: cache get failed: %v\n", err)
	} else if ok {
		s.observeCache(true)
		return Result{Records: cached, CacheHit: true, Duration: time.Since(start)}, nil
	} else {
		s.observeCache(false)
	}

	records, outcomes := aggregate.Aggregate(ctx, query, providers, s.cfg.Providers, w)
	s.observeOutcomes(outcomes)

	if scoring == nil {
		scoring = merge.DefaultScoring(s.cfg.Merge)
	}
	ranked := merge.MergeRank(records, query, s.cfg.Merge, scoring)

	// Cache only non-empty aggregations so a transient total failure
	// does not pin an empty result for a whole TTL.
	if len(ranked) > 0 {
		if err := s.cache.Put(ctx, key, ranked, s.cfg.Cache.TTL); err != nil {
			fmt.Fprintf(w, "warning: cache put failed: %v\n", err)
		}
		s.observeEvictions()
	}

	result := Result{Records: ranked, Failures: aggregate.Failures(outcomes), Duration: time.Since(start)}
	if s.metrics != nil {
		s.metrics.DiscoverDuration.Observe(result.Duration.Seconds())
	}
	return result, nil
}

// Invalidate drops the cached entry for query.
func (s *Store) Invalidate(ctx context.Context, query types.Query) error {
	return s.cache.Invalidate(ctx, query.Key())
}

// CacheStats exposes the underlying cache counters.
func (s *Store) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func (s *Store) observeCache(hit bool) {
	if s.metrics == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	s.metrics.CacheLookups.WithLabelValues(result).Inc()
}

// observeOutcomes records request count and duration for every provider
// outcome, successes and failures alike.
func (s *Store) observeOutcomes(outcomes []aggregate.Outcome) {
	if s.metrics == nil {
		return
	}
	for _, o := range outcomes {
		result := "success"
		if o.Failed() {
			result = string(o.Class)
		}
		s.metrics.ProviderRequests.WithLabelValues(o.Provider, result).Inc()
		s.metrics.ProviderDuration.WithLabelValues(o.Provider).Observe(o.Elapsed.Seconds())
	}
}

// observeEvictions forwards new cache evictions to the metrics counter.
// The cache keeps the authoritative cumulative count; only the delta
// since the last export is added.
func (s *Store) observeEvictions() {
	if s.metrics == nil {
		return
	}
	total := s.cache.Stats().Evictions
	prev := s.evictionsSeen.Swap(total)
	if d := total - prev; d > 0 {
		s.metrics.CacheEvictions.Add(float64(d))
	}
}
