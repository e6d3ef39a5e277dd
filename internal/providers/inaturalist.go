// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// inaturalistAPIBase is the iNaturalist observation search endpoint.
// Declared as a var so tests can substitute an httptest server.
var inaturalistAPIBase = "https://api.inaturalist.org/v1/observations"

// INaturalist queries recent wildlife observations (R2.3). Only useful
// for queries that include the wildlife category; other queries return
// no records rather than an error.
type INaturalist struct {
	Client *http.Client
}

// Name returns the provider identifier.
func (p *INaturalist) Name() string { return "inaturalist" }

// Fetch queries observations around the query reference point.
// Research-grade observations rate 0.9, unverified ones 0.4.
func (p *INaturalist) Fetch(ctx context.Context, query types.Query, cfg types.ProviderConfig) ([]types.ProviderRecord, error) {
	if !wantsCategory(query, "wildlife") {
		return nil, nil
	}

	ref := query.Reference()
	radiusKm := query.RadiusMeters / 1000
	if radiusKm <= 0 {
		radiusKm = defaultRadiusMeters / 1000
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	params := url.Values{
		"lat":      {fmt.Sprintf("%.6f", ref.Lat)},
		"lng":      {fmt.Sprintf("%.6f", ref.Lon)},
		"radius":   {fmt.Sprintf("%.1f", radiusKm)},
		"per_page": {fmt.Sprintf("%d", maxResults)},
		"order_by": {"votes"},
		"photos":   {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inaturalistAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("iNaturalist API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("iNaturalist API returned HTTP %d", resp.StatusCode)
	}

	var out inatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing iNaturalist response: %w", err)
	}

	var records []types.ProviderRecord
	for _, obs := range out.Results {
		name := obs.displayName()
		if name == "" {
			continue
		}
		loc, ok := obs.point()
		if !ok {
			continue
		}

		rating := 0.4
		if obs.QualityGrade == "research" {
			rating = 0.9
		}

		r := types.ProviderRecord{
			ID:       strconv.FormatInt(obs.ID, 10),
			Provider: "inaturalist",
			Name:     name,
			Location: loc,
			Category: "wildlife",
			Rating:   ratingPtr(rating),
			Payload:  map[string]string{"quality_grade": obs.QualityGrade},
		}
		if obs.Taxon != nil && obs.Taxon.Name != "" {
			r.Payload["taxon"] = obs.Taxon.Name
		}
		records = append(records, r)
	}
	return records, nil
}

// iNaturalist JSON structures.
type inatResponse struct {
	Results []inatObservation `json:"results"`
}

type inatObservation struct {
	ID           int64      `json:"id"`
	SpeciesGuess string     `json:"species_guess"`
	QualityGrade string     `json:"quality_grade"`
	Location     string     `json:"location"` // "lat,lon"
	Taxon        *inatTaxon `json:"taxon"`
}

type inatTaxon struct {
	Name                string `json:"name"`
	PreferredCommonName string `json:"preferred_common_name"`
}

func (o inatObservation) displayName() string {
	if o.Taxon != nil && o.Taxon.PreferredCommonName != "" {
		return o.Taxon.PreferredCommonName
	}
	return o.SpeciesGuess
}

// point parses the "lat,lon" location string.
func (o inatObservation) point() (types.GeoPoint, bool) {
	parts := strings.SplitN(o.Location, ",", 2)
	if len(parts) != 2 {
		return types.GeoPoint{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return types.GeoPoint{}, false
	}
	return types.GeoPoint{Lat: lat, Lon: lon}, true
}
