// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the waypoint-engine
// discovery pipeline.
// Implements: prd001-aggregation (Query, ProviderRecord);
//
//	prd002-merge (MergedRecord);
//	prd003-cache (Query.Key).
//
// See docs/ARCHITECTURE.md § Discovery Pipeline, § Data Structures.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// BoundingBox is a rectangular geographic area. South/West are the
// minimum latitude/longitude, North/East the maximum.
type BoundingBox struct {
	South float64 `json:"south" yaml:"south"`
	West  float64 `json:"west" yaml:"west"`
	North float64 `json:"north" yaml:"north"`
	East  float64 `json:"east" yaml:"east"`
}

// Center returns the centroid of the box.
func (b BoundingBox) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.South + b.North) / 2,
		Lon: (b.West + b.East) / 2,
	}
}

// RoutePath is an ordered polyline of coordinates along a route.
type RoutePath []GeoPoint

// Midpoint returns the middle vertex of the path, or the zero point
// for an empty path.
func (r RoutePath) Midpoint() GeoPoint {
	if len(r) == 0 {
		return GeoPoint{}
	}
	return r[len(r)/2]
}

// Query describes one discovery request: a point with a radius, a
// bounding area, or a route, plus the requested categories. Queries
// are value types; callers never mutate one after issuing it.
// Per prd001-aggregation R1.1-R1.4.
type Query struct {
	// Point is the reference location for point queries.
	Point *GeoPoint `json:"point,omitempty" yaml:"point,omitempty"`

	// Area is the bounding box for area queries.
	Area *BoundingBox `json:"area,omitempty" yaml:"area,omitempty"`

	// Route is the polyline for route queries.
	Route RoutePath `json:"route,omitempty" yaml:"route,omitempty"`

	// RadiusMeters bounds point and route queries (default 5000).
	RadiusMeters float64 `json:"radius_meters,omitempty" yaml:"radius_meters,omitempty"`

	// Categories filters results (e.g. "nature", "historic", "viewpoint").
	// Empty means all categories.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// IsEmpty reports whether the query names no location at all.
func (q Query) IsEmpty() bool {
	return q.Point == nil && q.Area == nil && len(q.Route) == 0
}

// Reference returns the point distances are scored against: the query
// point, the area centroid, or the route midpoint.
func (q Query) Reference() GeoPoint {
	switch {
	case q.Point != nil:
		return *q.Point
	case q.Area != nil:
		return q.Area.Center()
	default:
		return q.Route.Midpoint()
	}
}

// keyPrecision truncates coordinates in cache keys to ~11 m so that
// jittered repeat queries from a moving client hit the same entry.
const keyPrecision = "%.4f"

// Key returns the deterministic cache key for the query. Categories are
// sorted and lowercased, coordinates truncated to fixed precision, so
// two equivalent queries always produce the same key (prd003-cache R1.2).
func (q Query) Key() string {
	var b strings.Builder

	switch {
	case q.Point != nil:
		fmt.Fprintf(&b, "pt:"+keyPrecision+","+keyPrecision, q.Point.Lat, q.Point.Lon)
		fmt.Fprintf(&b, ";r:%.0f", q.RadiusMeters)
	case q.Area != nil:
		fmt.Fprintf(&b, "bb:"+keyPrecision+","+keyPrecision+","+keyPrecision+","+keyPrecision,
			q.Area.South, q.Area.West, q.Area.North, q.Area.East)
	default:
		b.WriteString("rt:")
		for i, p := range q.Route {
			if i > 0 {
				b.WriteByte('|')
			}
			fmt.Fprintf(&b, keyPrecision+","+keyPrecision, p.Lat, p.Lon)
		}
		fmt.Fprintf(&b, ";r:%.0f", q.RadiusMeters)
	}

	if len(q.Categories) > 0 {
		cats := make([]string, len(q.Categories))
		for i, c := range q.Categories {
			cats[i] = strings.ToLower(strings.TrimSpace(c))
		}
		sort.Strings(cats)
		b.WriteString(";cat:")
		b.WriteString(strings.Join(cats, ","))
	}

	return b.String()
}

// ProviderRecord is one result from a single provider. Records are
// immutable after creation; Provider plus ID is globally unique.
// Per prd001-aggregation R2.1-R2.4.
type ProviderRecord struct {
	// ID is the provider-scoped stable identifier (OSM node ID,
	// OpenTripMap xid, iNaturalist observation ID, ...).
	ID string `json:"id" yaml:"id"`

	// Provider identifies the source (e.g. "overpass", "opentripmap").
	Provider string `json:"provider" yaml:"provider"`

	// Name is the display name as returned by the provider.
	Name string `json:"name" yaml:"name"`

	// Location is the record's coordinate.
	Location GeoPoint `json:"location" yaml:"location"`

	// Category is the normalized category tag (e.g. "historic").
	Category string `json:"category" yaml:"category"`

	// Rating is the provider-assigned confidence or rating in [0,1].
	// Nil when the provider supplies none; scoring substitutes the
	// configured neutral rating.
	Rating *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`

	// Payload carries provider-specific fields the core does not
	// interpret (opening hours, Wikipedia link, taxon name, ...).
	Payload map[string]string `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// MergedRecord is a deduplicated, scored result: the representative
// ProviderRecord plus the relevance score and every provider that
// contributed a matching entry. Per prd002-merge R3.1-R3.3.
type MergedRecord struct {
	ProviderRecord `yaml:",inline"`

	// Score is the computed relevance in [0,1]. Deterministic for a
	// fixed set of contributing records and scoring function.
	Score float64 `json:"score" yaml:"score"`

	// ContributingProviders lists the distinct providers whose records
	// collapsed into this one, in provider-priority order.
	ContributingProviders []string `json:"contributing_providers" yaml:"contributing_providers"`
}
