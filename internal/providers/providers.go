// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package providers implements the concrete provider clients for the
// discovery pipeline: OpenStreetMap Overpass, OpenTripMap, iNaturalist,
// and a local SQLite dataset. Each satisfies aggregate.Provider; the
// core never sees HTTP, authentication, or provider schemas beyond the
// record payload.
// Implements: prd004-providers (R1-R5);
//
//	docs/ARCHITECTURE § Providers.
package providers

import (
	"math"
	"net/http"

	"github.com/pdiddy/waypoint-engine/internal/aggregate"
	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// FromConfig builds the enabled providers. Construction is explicit
// dependency injection; there is no package-level registry, so tests
// assemble mock provider lists the same way production code does.
func FromConfig(cfg types.ProviderConfig, client *http.Client) ([]aggregate.Provider, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var ps []aggregate.Provider
	if cfg.EnableOverpass {
		ps = append(ps, &Overpass{Client: client})
	}
	if cfg.EnableOpenTripMap {
		ps = append(ps, &OpenTripMap{Client: client, APIKey: cfg.OpenTripMapAPIKey})
	}
	if cfg.EnableINaturalist {
		ps = append(ps, &INaturalist{Client: client})
	}
	if cfg.LocalDatasetPath != "" {
		local, err := OpenLocal(cfg.LocalDatasetPath)
		if err != nil {
			return nil, err
		}
		ps = append(ps, local)
	}
	return ps, nil
}

const defaultRadiusMeters = 5000

// queryBounds converts any query shape into a bounding box: the area
// itself, or the point/route expanded by the query radius.
func queryBounds(q types.Query) types.BoundingBox {
	if q.Area != nil {
		return *q.Area
	}

	radius := q.RadiusMeters
	if radius <= 0 {
		radius = defaultRadiusMeters
	}

	points := q.Route
	if q.Point != nil {
		points = types.RoutePath{*q.Point}
	}
	if len(points) == 0 {
		return types.BoundingBox{}
	}

	b := types.BoundingBox{
		South: points[0].Lat, North: points[0].Lat,
		West: points[0].Lon, East: points[0].Lon,
	}
	for _, p := range points[1:] {
		b.South = math.Min(b.South, p.Lat)
		b.North = math.Max(b.North, p.Lat)
		b.West = math.Min(b.West, p.Lon)
		b.East = math.Max(b.East, p.Lon)
	}

	// Meters to degrees: latitude is uniform, longitude shrinks with
	// the cosine of the latitude.
	dLat := radius / 111320
	cosLat := math.Cos(b.Center().Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLon := radius / (111320 * cosLat)

	b.South -= dLat
	b.North += dLat
	b.West -= dLon
	b.East += dLon
	return b
}

// wantsCategory reports whether the query asks for cat; an empty
// category list means everything.
func wantsCategory(q types.Query, cat string) bool {
	if len(q.Categories) == 0 {
		return true
	}
	for _, c := range q.Categories {
		if c == cat {
			return true
		}
	}
	return false
}

func ratingPtr(v float64) *float64 { return &v }
