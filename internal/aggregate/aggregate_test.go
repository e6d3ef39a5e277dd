// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/pdiddy/waypoint-engine/internal/httputil"
	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// --- mock provider ---

type mockProvider struct {
	name    string
	records []types.ProviderRecord
	err     error
	delay   time.Duration
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Fetch(ctx context.Context, _ types.Query, _ types.ProviderConfig) ([]types.ProviderRecord, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.records, m.err
}

func testCfg() types.ProviderConfig {
	return types.ProviderConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		PerProviderTimeout: 100 * time.Millisecond,
		MaxResults:         50,
	}
}

func testQuery() types.Query {
	return types.Query{Point: &types.GeoPoint{Lat: 10, Lon: 10}}
}

func records(provider string, n int) []types.ProviderRecord {
	out := make([]types.ProviderRecord, n)
	for i := range out {
		out[i] = types.ProviderRecord{
			ID:       fmt.Sprintf("%d", i),
			Provider: provider,
			Name:     fmt.Sprintf("poi-%d", i),
			Location: types.GeoPoint{Lat: 10, Lon: 10},
		}
	}
	return out
}

// --- Aggregate ---

func TestAggregateZeroProviders(t *testing.T) {
	got, outcomes := Aggregate(context.Background(), testQuery(), nil, testCfg(), io.Discard)
	if got != nil || outcomes != nil {
		t.Errorf("Aggregate() = (%v, %v), want (nil, nil)", got, outcomes)
	}
}

func TestAggregateCombinesAllSuccesses(t *testing.T) {
	providers := []Provider{
		&mockProvider{name: "a", records: records("a", 2), delay: time.Millisecond},
		&mockProvider{name: "b", records: records("b", 3), delay: time.Millisecond},
	}

	got, outcomes := Aggregate(context.Background(), testQuery(), providers, testCfg(), io.Discard)
	if len(got) != 5 {
		t.Errorf("len(records) = %d, want 5", len(got))
	}
	// One outcome per provider, even when every call succeeds, each
	// carrying its elapsed time.
	if len(outcomes) != 2 {
		t.Fatalf("len(outcomes) = %d, want 2", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Failed() {
			t.Errorf("outcome %s unexpectedly failed: %v", o.Provider, o.Err)
		}
		if o.Elapsed <= 0 {
			t.Errorf("outcome %s has no elapsed time", o.Provider)
		}
	}
	if len(Failures(outcomes)) != 0 {
		t.Errorf("Failures() = %v, want none", Failures(outcomes))
	}
}

func TestAggregatePartialFailure(t *testing.T) {
	// One of three providers hangs past the per-provider timeout; the
	// other two still deliver, and the slow one is reported as exactly
	// one timeout outcome.
	providers := []Provider{
		&mockProvider{name: "fast-a", records: records("fast-a", 2)},
		&mockProvider{name: "fast-b", records: records("fast-b", 1)},
		&mockProvider{name: "hung", delay: 5 * time.Second},
	}

	start := time.Now()
	got, outcomes := Aggregate(context.Background(), testQuery(), providers, testCfg(), io.Discard)
	elapsed := time.Since(start)

	if len(got) != 3 {
		t.Errorf("len(records) = %d, want 3", len(got))
	}
	if len(outcomes) != 3 {
		t.Errorf("len(outcomes) = %d, want one per provider", len(outcomes))
	}
	failures := Failures(outcomes)
	if len(failures) != 1 {
		t.Fatalf("len(failures) = %d, want 1", len(failures))
	}
	if failures[0].Provider != "hung" {
		t.Errorf("failed provider = %q, want hung", failures[0].Provider)
	}
	if failures[0].Class != FailTimeout {
		t.Errorf("failure class = %q, want %q", failures[0].Class, FailTimeout)
	}

	// Latency is bounded by the per-provider timeout, not the sum of
	// provider latencies.
	if elapsed > 2*time.Second {
		t.Errorf("aggregation took %v, want ~perProviderTimeout (100ms)", elapsed)
	}
}

func TestAggregateAllFail(t *testing.T) {
	providers := []Provider{
		&mockProvider{name: "a", err: errors.New("boom")},
		&mockProvider{name: "b", delay: 5 * time.Second},
	}

	got, outcomes := Aggregate(context.Background(), testQuery(), providers, testCfg(), io.Discard)
	if len(got) != 0 {
		t.Errorf("len(records) = %d, want 0", len(got))
	}
	if len(Failures(outcomes)) != 2 {
		t.Errorf("len(failures) = %d, want 2: callers distinguish total failure by the failure list", len(Failures(outcomes)))
	}
}

func TestAggregateRunsConcurrently(t *testing.T) {
	// Five providers each sleeping 50ms must finish in far less than
	// 250ms when fanned out.
	var providers []Provider
	for i := 0; i < 5; i++ {
		providers = append(providers, &mockProvider{
			name:    fmt.Sprintf("p%d", i),
			records: records(fmt.Sprintf("p%d", i), 1),
			delay:   50 * time.Millisecond,
		})
	}

	start := time.Now()
	got, _ := Aggregate(context.Background(), testQuery(), providers, testCfg(), io.Discard)
	elapsed := time.Since(start)

	if len(got) != 5 {
		t.Errorf("len(records) = %d, want 5", len(got))
	}
	if elapsed > 200*time.Millisecond {
		t.Errorf("aggregation took %v; providers appear to run sequentially", elapsed)
	}
}

func TestAggregateFailedOutcomeCarriesNoRecords(t *testing.T) {
	providers := []Provider{
		&mockProvider{name: "flaky", records: records("flaky", 3), err: errors.New("partial read")},
	}

	got, outcomes := Aggregate(context.Background(), testQuery(), providers, testCfg(), io.Discard)
	if len(got) != 0 {
		t.Errorf("failed provider leaked %d records into the success set", len(got))
	}
	if len(outcomes) != 1 || outcomes[0].Records != nil {
		t.Errorf("failure outcome should not retain records: %+v", outcomes)
	}
}

// --- Classify ---

func TestClassify(t *testing.T) {
	expired, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-expired.Done()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want FailureClass
	}{
		{"deadline error", context.Background(), context.DeadlineExceeded, FailTimeout},
		{"wrapped deadline", context.Background(), fmt.Errorf("fetch: %w", context.DeadlineExceeded), FailTimeout},
		{"expired context with opaque error", expired, errors.New("connection reset"), FailTimeout},
		{"rate limited", context.Background(), &httputil.RateLimitError{Provider: "otm"}, FailRateLimited},
		{"wrapped rate limited", context.Background(), fmt.Errorf("fetch: %w", &httputil.RateLimitError{Provider: "otm"}), FailRateLimited},
		{"plain provider error", context.Background(), errors.New("HTTP 500"), FailProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ctx, tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
