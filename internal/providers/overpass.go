// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// overpassAPIBase is the Overpass interpreter endpoint. Declared as a
// var so tests can substitute an httptest server.
var overpassAPIBase = "https://overpass-api.de/api/interpreter"

// overpassSelectors maps engine categories to OSM tag selectors.
var overpassSelectors = map[string]string{
	"nature":    `node["natural"]`,
	"historic":  `node["historic"]`,
	"viewpoint": `node["tourism"="viewpoint"]`,
	"tourism":   `node["tourism"]`,
	"food":      `node["amenity"~"restaurant|cafe"]`,
}

// Overpass queries OpenStreetMap points of interest through the
// Overpass API (R2.1).
type Overpass struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *Overpass) Name() string { return "overpass" }

// Fetch runs an Overpass QL query over the query bounds and maps the
// returned nodes to records. OSM carries no ratings; Rating stays nil
// so scoring substitutes the neutral value.
func (p *Overpass) Fetch(ctx context.Context, query types.Query, cfg types.ProviderConfig) ([]types.ProviderRecord, error) {
	ql := buildOverpassQL(query, cfg.MaxResults)

	form := url.Values{"data": {ql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, overpassAPIBase,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Overpass API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Overpass API returned HTTP %d", resp.StatusCode)
	}

	var out overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing Overpass response: %w", err)
	}

	var records []types.ProviderRecord
	for _, el := range out.Elements {
		name := el.Tags["name"]
		if name == "" {
			continue
		}
		r := types.ProviderRecord{
			ID:       fmt.Sprintf("%d", el.ID),
			Provider: "overpass",
			Name:     name,
			Location: types.GeoPoint{Lat: el.Lat, Lon: el.Lon},
			Category: categoryFromTags(el.Tags),
			Payload:  map[string]string{},
		}
		for _, k := range []string{"wikipedia", "website", "opening_hours", "description"} {
			if v := el.Tags[k]; v != "" {
				r.Payload[k] = v
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// buildOverpassQL constructs the Overpass QL union for the requested
// categories over the query bounds.
func buildOverpassQL(q types.Query, maxResults int) string {
	if maxResults <= 0 {
		maxResults = 50
	}
	b := queryBounds(q)
	bbox := fmt.Sprintf("(%.6f,%.6f,%.6f,%.6f)", b.South, b.West, b.North, b.East)

	cats := q.Categories
	if len(cats) == 0 {
		cats = []string{"tourism", "historic", "nature"}
	}

	var sel []string
	for _, c := range cats {
		if s, ok := overpassSelectors[c]; ok {
			sel = append(sel, s+bbox+";")
		}
	}
	if len(sel) == 0 {
		sel = append(sel, `node["tourism"]`+bbox+";")
	}

	return fmt.Sprintf("[out:json];(%s);out %d;", strings.Join(sel, ""), maxResults)
}

// categoryFromTags normalizes OSM tags to an engine category.
func categoryFromTags(tags map[string]string) string {
	switch {
	case tags["natural"] != "":
		return "nature"
	case tags["historic"] != "":
		return "historic"
	case tags["tourism"] == "viewpoint":
		return "viewpoint"
	case tags["tourism"] != "":
		return "tourism"
	case tags["amenity"] != "":
		return "food"
	default:
		return "other"
	}
}

// Overpass JSON structures.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}
