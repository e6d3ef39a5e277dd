// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate fans one query out to all configured providers
// concurrently and collects their outcomes.
// Implements: prd001-aggregation (R1-R4);
//
//	docs/ARCHITECTURE § Aggregation.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdiddy/waypoint-engine/internal/httputil"
	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// Provider fetches records from a single external data source. Each
// provider (Overpass, OpenTripMap, iNaturalist, local dataset)
// implements this interface per the Strategy pattern (R2.6). A provider
// must honor ctx cancellation; the aggregator bounds every call with a
// per-provider deadline.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, query types.Query, cfg types.ProviderConfig) ([]types.ProviderRecord, error)
}

// FailureClass categorizes a failed provider call for caller inspection.
type FailureClass string

const (
	FailTimeout     FailureClass = "timeout"
	FailRateLimited FailureClass = "rate_limited"
	FailProvider    FailureClass = "provider_error"
)

// Outcome is the per-provider result of one aggregation: either the
// fetched records or a classified failure. Outcomes live only for the
// duration of one Aggregate call.
type Outcome struct {
	Provider string
	Records  []types.ProviderRecord
	Err      error
	Class    FailureClass
	Elapsed  time.Duration
}

// Failed reports whether the outcome is a failure.
func (o Outcome) Failed() bool { return o.Err != nil }

// Aggregate issues one Fetch per provider concurrently, each bounded by
// cfg.PerProviderTimeout, and returns the union of all successful
// records plus one outcome per provider, successes included, so callers
// can observe per-provider latency regardless of result. A slow or
// failing provider never delays the others; partial success is the
// normal case, and even a total failure is reported through the outcome
// list rather than an error (R3.1-R3.4). Failures are never retried
// here; retry policy belongs to the individual provider clients.
//
// Zero providers return (nil, nil) immediately.
func Aggregate(ctx context.Context, query types.Query, providers []Provider, cfg types.ProviderConfig, w io.Writer) ([]types.ProviderRecord, []Outcome) {
	if len(providers) == 0 {
		return nil, nil
	}

	ch := make(chan Outcome, len(providers))
	var wg sync.WaitGroup

	for _, p := range providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			ch <- fetchOne(ctx, p, query, cfg)
		}(p)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var records []types.ProviderRecord
	outcomes := make([]Outcome, 0, len(providers))
	for o := range ch {
		outcomes = append(outcomes, o)
		if o.Failed() {
			fmt.Fprintf(w, "warning: provider %s failed (%s): %v\n", o.Provider, o.Class, o.Err)
			continue
		}
		records = append(records, o.Records...)
	}

	return records, outcomes
}

// Failures returns only the failed outcomes.
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// fetchOne runs a single provider call under its own deadline and
// classifies the result.
func fetchOne(ctx context.Context, p Provider, query types.Query, cfg types.ProviderConfig) Outcome {
	pctx, cancel := context.WithTimeout(ctx, cfg.PerProviderTimeout)
	defer cancel()

	start := time.Now()
	records, err := p.Fetch(pctx, query, cfg)
	elapsed := time.Since(start)

	o := Outcome{Provider: p.Name(), Records: records, Err: err, Elapsed: elapsed}
	if err != nil {
		o.Records = nil
		o.Class = Classify(pctx, err)
	}
	return o
}

// Classify maps a provider error onto the failure taxonomy. Deadline
// errors count as timeouts whether they surface as context errors or
// wrapped transport errors; exhausted rate-limit retries surface as
// httputil.RateLimitError.
func Classify(ctx context.Context, err error) FailureClass {
	var rl *httputil.RateLimitError
	switch {
	case errors.As(err, &rl):
		return FailRateLimited
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return FailTimeout
	default:
		return FailProvider
	}
}
