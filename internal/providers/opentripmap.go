// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/waypoint-engine/internal/httputil"
	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// opentripmapAPIBase is the OpenTripMap radius endpoint. Declared as a
// var so tests can substitute an httptest server.
var opentripmapAPIBase = "https://api.opentripmap.com/0.1/en/places/radius"

// opentripmapKinds maps engine categories to OpenTripMap kind filters.
var opentripmapKinds = map[string]string{
	"historic":  "historic",
	"nature":    "natural",
	"tourism":   "interesting_places",
	"viewpoint": "view_points",
	"cultural":  "cultural",
}

// otmMaxRate is the top of OpenTripMap's 0-7 popularity scale, used to
// normalize rates into [0,1].
const otmMaxRate = 7.0

// OpenTripMap queries cultural and heritage sites from the OpenTripMap
// API (R2.2). Requests go through the shared 429 retry helper; a
// provider that stays throttled surfaces a RateLimitError so the
// aggregator classifies it as rate_limited rather than broken.
type OpenTripMap struct {
	Client *http.Client
	APIKey string
}

// Name returns the provider identifier.
func (p *OpenTripMap) Name() string { return "opentripmap" }

// Fetch queries the radius endpoint around the query reference point.
func (p *OpenTripMap) Fetch(ctx context.Context, query types.Query, cfg types.ProviderConfig) ([]types.ProviderRecord, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("opentripmap requires an API key")
	}

	ref := query.Reference()
	radius := query.RadiusMeters
	if radius <= 0 {
		radius = defaultRadiusMeters
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	params := url.Values{
		"radius": {fmt.Sprintf("%.0f", radius)},
		"lat":    {fmt.Sprintf("%.6f", ref.Lat)},
		"lon":    {fmt.Sprintf("%.6f", ref.Lon)},
		"limit":  {fmt.Sprintf("%d", maxResults)},
		"format": {"json"},
		"apikey": {p.APIKey},
	}
	if kinds := buildOpenTripMapKinds(query); kinds != "" {
		params.Set("kinds", kinds)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opentripmapAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenTripMap API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &httputil.RateLimitError{Provider: p.Name(), RetryAfter: httputil.RetryAfter(resp)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenTripMap API returned HTTP %d", resp.StatusCode)
	}

	var places []otmPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("parsing OpenTripMap response: %w", err)
	}

	var records []types.ProviderRecord
	for _, pl := range places {
		if pl.Name == "" {
			continue
		}
		records = append(records, types.ProviderRecord{
			ID:       pl.XID,
			Provider: "opentripmap",
			Name:     pl.Name,
			Location: types.GeoPoint{Lat: pl.Point.Lat, Lon: pl.Point.Lon},
			Category: categoryFromKinds(pl.Kinds),
			Rating:   ratingPtr(float64(pl.Rate) / otmMaxRate),
			Payload:  map[string]string{"kinds": pl.Kinds},
		})
	}
	return records, nil
}

// buildOpenTripMapKinds converts query categories to the API's kind
// list; unknown categories are skipped.
func buildOpenTripMapKinds(q types.Query) string {
	var kinds []string
	for _, c := range q.Categories {
		if k, ok := opentripmapKinds[c]; ok {
			kinds = append(kinds, k)
		}
	}
	return strings.Join(kinds, ",")
}

// categoryFromKinds normalizes the comma-separated kind list to an
// engine category.
func categoryFromKinds(kinds string) string {
	switch {
	case strings.Contains(kinds, "historic"):
		return "historic"
	case strings.Contains(kinds, "natural"):
		return "nature"
	case strings.Contains(kinds, "view_points"):
		return "viewpoint"
	case strings.Contains(kinds, "cultural"):
		return "cultural"
	default:
		return "tourism"
	}
}

// OpenTripMap JSON structures.
type otmPlace struct {
	XID   string   `json:"xid"`
	Name  string   `json:"name"`
	Kinds string   `json:"kinds"`
	Rate  int      `json:"rate"`
	Point otmPoint `json:"point"`
}

type otmPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
