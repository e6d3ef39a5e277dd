// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines heterogeneous provider records into one ranked,
// deduplicated list. The engine is pure: no I/O, no hidden state, and
// its output is deterministic under permutation of the input.
// Implements: prd002-merge (R1-R4);
//
//	docs/ARCHITECTURE § Merge Engine.
package merge

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// Candidate is a deduplicated group under scoring: the representative
// record, every record that collapsed into it, the distinct providers
// that agreed, and the distance from the query reference point.
type Candidate struct {
	Representative types.ProviderRecord
	Records        []types.ProviderRecord
	Providers      []string
	DistanceMeters float64
}

// ScoringFn computes a relevance score in [0,1] for one candidate.
// Callers inject their own to specialize ranking without touching the
// dedup logic (R3.4).
type ScoringFn func(c Candidate) float64

// MergeRank deduplicates records, scores each group with scoring, and
// returns the complete ranked list. Zero input records produce an empty
// output. The engine never truncates; pagination belongs to the caller
// (R4.3).
func MergeRank(records []types.ProviderRecord, query types.Query, cfg types.MergeConfig, scoring ScoringFn) []types.MergedRecord {
	if len(records) == 0 {
		return nil
	}

	groups := dedup(records, cfg)
	ref := query.Reference()

	ranked := make([]rankedRecord, 0, len(groups))
	for _, g := range groups {
		rep := representative(g, cfg)
		c := Candidate{
			Representative: rep,
			Records:        g,
			Providers:      distinctProviders(g, cfg),
			DistanceMeters: haversineMeters(ref, rep.Location),
		}
		ranked = append(ranked, rankedRecord{
			MergedRecord: types.MergedRecord{
				ProviderRecord:        rep,
				Score:                 clamp01(scoring(c)),
				ContributingProviders: c.Providers,
			},
			distance: c.DistanceMeters,
		})
	}

	// Score descending, then distance ascending, then name, then
	// provider and ID so equal-named records still order reproducibly.
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		return a.ID < b.ID
	})

	out := make([]types.MergedRecord, len(ranked))
	for i, r := range ranked {
		out[i] = r.MergedRecord
	}
	return out
}

type rankedRecord struct {
	types.MergedRecord
	distance float64
}

// dedup groups records that are within cfg.ProximityMeters of each
// other AND whose normalized names are at least cfg.NameSimilarity
// similar (R1.1). Records are first put into a canonical order so the
// greedy grouping is independent of input order; each record joins the
// first group whose seed matches, otherwise it seeds a new group.
func dedup(records []types.ProviderRecord, cfg types.MergeConfig) [][]types.ProviderRecord {
	canonical := make([]types.ProviderRecord, len(records))
	copy(canonical, records)
	rank := priorityRank(cfg.ProviderPriority)
	sort.Slice(canonical, func(i, j int) bool {
		a, b := canonical[i], canonical[j]
		ra, rb := rank(a.Provider), rank(b.Provider)
		if ra != rb {
			return ra < rb
		}
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		return a.ID < b.ID
	})

	var seeds []types.ProviderRecord
	var groups [][]types.ProviderRecord
	for _, r := range canonical {
		matched := false
		for i, seed := range seeds {
			if haversineMeters(seed.Location, r.Location) <= cfg.ProximityMeters &&
				nameSimilarity(seed.Name, r.Name) >= cfg.NameSimilarity {
				groups[i] = append(groups[i], r)
				matched = true
				break
			}
		}
		if !matched {
			seeds = append(seeds, r)
			groups = append(groups, []types.ProviderRecord{r})
		}
	}
	return groups
}

// representative picks the group member whose fields the MergedRecord
// carries: highest rating wins (missing rating counts as the neutral
// rating), ties broken by the configured provider priority order, then
// provider name, then ID, never iteration order (R1.3).
func representative(group []types.ProviderRecord, cfg types.MergeConfig) types.ProviderRecord {
	rank := priorityRank(cfg.ProviderPriority)
	best := group[0]
	for _, r := range group[1:] {
		br, rr := effectiveRating(best, cfg), effectiveRating(r, cfg)
		switch {
		case rr > br:
			best = r
		case rr == br:
			if rank(r.Provider) < rank(best.Provider) ||
				(rank(r.Provider) == rank(best.Provider) && r.Provider < best.Provider) ||
				(r.Provider == best.Provider && r.ID < best.ID) {
				best = r
			}
		}
	}
	return best
}

// distinctProviders lists the providers in a group once each, ordered
// by priority rank then name.
func distinctProviders(group []types.ProviderRecord, cfg types.MergeConfig) []string {
	seen := make(map[string]bool, len(group))
	var providers []string
	for _, r := range group {
		if !seen[r.Provider] {
			seen[r.Provider] = true
			providers = append(providers, r.Provider)
		}
	}
	rank := priorityRank(cfg.ProviderPriority)
	sort.Slice(providers, func(i, j int) bool {
		if rank(providers[i]) != rank(providers[j]) {
			return rank(providers[i]) < rank(providers[j])
		}
		return providers[i] < providers[j]
	})
	return providers
}

// priorityRank returns a lookup from provider name to its position in
// the configured priority list; unlisted providers rank last.
func priorityRank(priority []string) func(string) int {
	pos := make(map[string]int, len(priority))
	for i, p := range priority {
		pos[p] = i
	}
	return func(name string) int {
		if i, ok := pos[name]; ok {
			return i
		}
		return len(priority)
	}
}

func effectiveRating(r types.ProviderRecord, cfg types.MergeConfig) float64 {
	if r.Rating == nil {
		return cfg.NeutralRating
	}
	return *r.Rating
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// stopwords are leading articles dropped during name normalization so
// "The Lighthouse" and "Lighthouse" compare equal.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "le": true, "la": true, "el": true,
}

// normalizeName returns the lowercased, punctuation-stripped,
// article-free token form of a display name.
func normalizeName(name string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	fields := strings.Fields(b.String())
	tokens := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// nameSimilarity measures how alike two display names are in [0,1]:
// the token Jaccard index, promoted to the containment ratio when one
// name's tokens are a subset of the other's ("Lighthouse" vs
// "Lighthouse Point"). Word order does not matter.
func nameSimilarity(a, b string) float64 {
	ta, tb := normalizeName(a), normalizeName(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	common := 0
	for _, t := range tb {
		if set[t] {
			common++
			delete(set, t)
		}
	}

	union := len(ta) + len(tb) - common
	jaccard := float64(common) / float64(union)

	minLen := len(ta)
	if len(tb) < minLen {
		minLen = len(tb)
	}
	containment := float64(common) / float64(minLen)
	if containment > jaccard {
		return containment
	}
	return jaccard
}
