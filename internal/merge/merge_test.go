// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

func testCfg() types.MergeConfig {
	return types.MergeConfig{
		ProximityMeters:  50,
		NameSimilarity:   0.6,
		NeutralRating:    0.5,
		ProviderPriority: []string{"local", "opentripmap", "overpass", "inaturalist"},
	}
}

func rec(provider, id, name string, lat, lon float64, rating *float64) types.ProviderRecord {
	return types.ProviderRecord{
		ID:       id,
		Provider: provider,
		Name:     name,
		Location: types.GeoPoint{Lat: lat, Lon: lon},
		Category: "tourism",
		Rating:   rating,
	}
}

func r(v float64) *float64 { return &v }

func pointQuery(lat, lon float64) types.Query {
	return types.Query{Point: &types.GeoPoint{Lat: lat, Lon: lon}}
}

// --- dedup ---

func TestMergeRankCollapsesDuplicates(t *testing.T) {
	// The Lighthouse scenario: same place reported by two providers a
	// few meters apart, with and without a leading article.
	records := []types.ProviderRecord{
		rec("overpass", "1", "Lighthouse", 10, 10, r(0.9)),
		rec("opentripmap", "x1", "The Lighthouse", 10.0001, 10.0001, r(0.6)),
	}

	out := MergeRank(records, pointQuery(10, 10), testCfg(), DefaultScoring(testCfg()))
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	m := out[0]
	if m.Name != "Lighthouse" {
		t.Errorf("representative name = %q, want %q (higher rating wins)", m.Name, "Lighthouse")
	}
	if m.Provider != "overpass" {
		t.Errorf("representative provider = %q, want overpass", m.Provider)
	}
	want := []string{"opentripmap", "overpass"}
	if !reflect.DeepEqual(m.ContributingProviders, want) {
		t.Errorf("contributing providers = %v, want %v", m.ContributingProviders, want)
	}
}

func TestMergeRankCorroborationRaisesScore(t *testing.T) {
	cfg := testCfg()
	solo := MergeRank([]types.ProviderRecord{
		rec("overpass", "1", "Lighthouse", 10, 10, r(0.9)),
	}, pointQuery(10, 10), cfg, DefaultScoring(cfg))

	corroborated := MergeRank([]types.ProviderRecord{
		rec("overpass", "1", "Lighthouse", 10, 10, r(0.9)),
		rec("opentripmap", "x1", "The Lighthouse", 10.0001, 10.0001, r(0.6)),
	}, pointQuery(10, 10), cfg, DefaultScoring(cfg))

	if corroborated[0].Score <= solo[0].Score {
		t.Errorf("corroborated score %f should exceed solo score %f",
			corroborated[0].Score, solo[0].Score)
	}
}

func TestMergeRankKeepsDistinctPlaces(t *testing.T) {
	tests := []struct {
		name    string
		records []types.ProviderRecord
	}{
		{
			name: "same name, too far apart",
			records: []types.ProviderRecord{
				rec("overpass", "1", "Lighthouse", 10, 10, nil),
				rec("opentripmap", "x1", "Lighthouse", 10.01, 10.01, nil), // ~1.5 km
			},
		},
		{
			name: "close together, different names",
			records: []types.ProviderRecord{
				rec("overpass", "1", "Lighthouse", 10, 10, nil),
				rec("opentripmap", "x1", "Harbor Restaurant", 10.0001, 10.0001, nil),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := MergeRank(tt.records, pointQuery(10, 10), testCfg(), DefaultScoring(testCfg()))
			if len(out) != 2 {
				t.Fatalf("len(out) = %d, want 2", len(out))
			}
			for _, m := range out {
				if len(m.ContributingProviders) != 1 {
					t.Errorf("record %q contributing providers = %v, want exactly one",
						m.Name, m.ContributingProviders)
				}
			}
		})
	}
}

func TestMergeRankRatingTieBreakUsesPriority(t *testing.T) {
	// Equal ratings: the configured priority order decides the
	// representative, not input or iteration order.
	records := []types.ProviderRecord{
		rec("overpass", "1", "Old Mill", 10, 10, r(0.7)),
		rec("opentripmap", "x1", "Old Mill", 10.00005, 10.00005, r(0.7)),
	}

	out := MergeRank(records, pointQuery(10, 10), testCfg(), DefaultScoring(testCfg()))
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Provider != "opentripmap" {
		t.Errorf("representative provider = %q, want opentripmap (higher priority)", out[0].Provider)
	}
}

func TestMergeRankMissingRatingDefaultsToNeutral(t *testing.T) {
	// An unrated record must not lose to a rated 0.4 record: neutral
	// is 0.5.
	records := []types.ProviderRecord{
		rec("overpass", "1", "Quarry", 10, 10, nil),
		rec("opentripmap", "x1", "Quarry", 10.00005, 10.00005, r(0.4)),
	}

	out := MergeRank(records, pointQuery(10, 10), testCfg(), DefaultScoring(testCfg()))
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if out[0].Provider != "overpass" {
		t.Errorf("representative provider = %q, want overpass (neutral 0.5 beats 0.4)", out[0].Provider)
	}
}

// --- determinism ---

func TestMergeRankDeterministicUnderPermutation(t *testing.T) {
	records := []types.ProviderRecord{
		rec("overpass", "1", "Lighthouse", 10, 10, r(0.9)),
		rec("opentripmap", "x1", "The Lighthouse", 10.0001, 10.0001, r(0.6)),
		rec("overpass", "2", "Harbor Restaurant", 10.001, 10.001, r(0.8)),
		rec("inaturalist", "77", "Sea Otter", 10.002, 10.002, r(0.9)),
		rec("opentripmap", "x2", "Old Fort", 9.999, 9.999, nil),
		rec("local", "l1", "Harbour Restaurant", 10.00101, 10.00101, r(0.8)),
	}
	cfg := testCfg()
	query := pointQuery(10, 10)
	scoring := DefaultScoring(cfg)

	want := MergeRank(records, query, cfg, scoring)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]types.ProviderRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := MergeRank(shuffled, query, cfg, scoring)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("permutation %d produced different output:\ngot  %+v\nwant %+v", i, got, want)
		}
	}
}

func TestMergeRankSortsByScoreThenDistanceThenName(t *testing.T) {
	// An injected constant scoring function forces the tie-break path.
	flat := func(Candidate) float64 { return 0.5 }

	records := []types.ProviderRecord{
		rec("overpass", "3", "Bravo", 10.01, 10, nil),  // farther
		rec("overpass", "1", "Delta", 10.001, 10, nil), // near, name after Charlie
		rec("overpass", "2", "Charlie", 10.001, 10, nil),
	}

	out := MergeRank(records, pointQuery(10, 10), testCfg(), flat)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	wantOrder := []string{"Charlie", "Delta", "Bravo"}
	for i, name := range wantOrder {
		if out[i].Name != name {
			t.Errorf("out[%d].Name = %q, want %q", i, out[i].Name, name)
		}
	}
}

// --- edge cases ---

func TestMergeRankEmptyInput(t *testing.T) {
	out := MergeRank(nil, pointQuery(10, 10), testCfg(), DefaultScoring(testCfg()))
	if len(out) != 0 {
		t.Errorf("len(out) = %d, want 0", len(out))
	}
}

func TestMergeRankScoreStaysInRange(t *testing.T) {
	// A scoring function out of range is clamped.
	hot := func(Candidate) float64 { return 3.7 }
	cold := func(Candidate) float64 { return -1.2 }

	records := []types.ProviderRecord{rec("overpass", "1", "Peak", 10, 10, nil)}
	q := pointQuery(10, 10)

	if got := MergeRank(records, q, testCfg(), hot)[0].Score; got != 1.0 {
		t.Errorf("clamped high score = %f, want 1.0", got)
	}
	if got := MergeRank(records, q, testCfg(), cold)[0].Score; got != 0.0 {
		t.Errorf("clamped low score = %f, want 0.0", got)
	}
}

// --- name similarity ---

func TestNameSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "Lighthouse", "Lighthouse", 1.0, 1.0},
		{"leading article", "The Lighthouse", "Lighthouse", 1.0, 1.0},
		{"punctuation and case", "St. Mary's Church", "st marys church", 1.0, 1.0},
		{"token subset", "Lighthouse", "Lighthouse Point", 1.0, 1.0},
		{"word order", "Museum National", "National Museum", 1.0, 1.0},
		{"partial overlap", "Old Harbor Fort", "Old Town Fort", 0.3, 0.7},
		{"unrelated", "Lighthouse", "Harbor Restaurant", 0.0, 0.0},
		{"empty", "", "Lighthouse", 0.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nameSimilarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("nameSimilarity(%q, %q) = %f, want in [%f, %f]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and strips punctuation", "St. Mary's!", []string{"st", "marys"}},
		{"drops articles", "The Old Mill", []string{"old", "mill"}},
		{"collapses whitespace", "  Old   Mill ", []string{"old", "mill"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeName(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeName(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
