// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"math"
	"testing"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

func TestHaversineMeters(t *testing.T) {
	tests := []struct {
		name string
		a, b types.GeoPoint
		want float64
		tol  float64
	}{
		{
			name: "zero distance",
			a:    types.GeoPoint{Lat: 48.8584, Lon: 2.2945},
			b:    types.GeoPoint{Lat: 48.8584, Lon: 2.2945},
			want: 0, tol: 0.001,
		},
		{
			name: "one degree latitude",
			a:    types.GeoPoint{Lat: 0, Lon: 0},
			b:    types.GeoPoint{Lat: 1, Lon: 0},
			want: 111195, tol: 200,
		},
		{
			name: "eiffel tower to notre dame",
			a:    types.GeoPoint{Lat: 48.8584, Lon: 2.2945},
			b:    types.GeoPoint{Lat: 48.8530, Lon: 2.3499},
			want: 4100, tol: 100,
		},
		{
			name: "tiny offset stays under dedup threshold",
			a:    types.GeoPoint{Lat: 10, Lon: 10},
			b:    types.GeoPoint{Lat: 10.0001, Lon: 10.0001},
			want: 15.6, tol: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := haversineMeters(tt.a, tt.b)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("haversineMeters() = %f, want %f ± %f", got, tt.want, tt.tol)
			}
		})
	}
}
