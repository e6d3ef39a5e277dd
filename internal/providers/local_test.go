// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

func openTestDataset(t *testing.T) *Local {
	t.Helper()
	local, err := OpenLocal(filepath.Join(t.TempDir(), "pois.db"))
	if err != nil {
		t.Fatalf("OpenLocal() error: %v", err)
	}
	t.Cleanup(func() { local.Close() })
	return local
}

func seedDataset(t *testing.T, local *Local, records ...types.ProviderRecord) {
	t.Helper()
	for _, r := range records {
		if err := local.Insert(context.Background(), r); err != nil {
			t.Fatalf("Insert(%s) error: %v", r.ID, err)
		}
	}
}

func TestLocalFetchInsideBounds(t *testing.T) {
	local := openTestDataset(t)
	seedDataset(t, local,
		types.ProviderRecord{
			ID: "poi-1", Name: "Grand Prismatic Spring",
			Location: types.GeoPoint{Lat: 44.525, Lon: -110.838},
			Category: "nature", Rating: ratingPtr(0.95),
			Payload: map[string]string{"description": "hot spring"},
		},
		types.ProviderRecord{
			ID: "poi-2", Name: "Fairy Falls",
			Location: types.GeoPoint{Lat: 44.515, Lon: -110.845},
			Category: "nature", Rating: ratingPtr(0.8),
		},
		types.ProviderRecord{
			ID: "poi-3", Name: "Far Away Diner",
			Location: types.GeoPoint{Lat: 40.0, Lon: -105.0},
			Category: "food", Rating: ratingPtr(0.9),
		},
	)

	query := types.Query{Point: &types.GeoPoint{Lat: 44.52, Lon: -110.84}, RadiusMeters: 3000}
	records, err := local.Fetch(context.Background(), query, providerCfg())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2 (out-of-bounds row excluded)", len(records))
	}
	// Rows come back best-rated first.
	if records[0].ID != "poi-1" || records[1].ID != "poi-2" {
		t.Errorf("order = [%s %s], want [poi-1 poi-2]", records[0].ID, records[1].ID)
	}
	if records[0].Provider != "local" {
		t.Errorf("provider = %q, want local", records[0].Provider)
	}
	if records[0].Payload["description"] != "hot spring" {
		t.Errorf("payload = %v, want description carried over", records[0].Payload)
	}
}

func TestLocalFetchCategoryFilter(t *testing.T) {
	local := openTestDataset(t)
	seedDataset(t, local,
		types.ProviderRecord{
			ID: "poi-1", Name: "Overlook",
			Location: types.GeoPoint{Lat: 44.52, Lon: -110.84},
			Category: "viewpoint", Rating: ratingPtr(0.7),
		},
		types.ProviderRecord{
			ID: "poi-2", Name: "Roadside Grill",
			Location: types.GeoPoint{Lat: 44.52, Lon: -110.84},
			Category: "food", Rating: ratingPtr(0.6),
		},
	)

	query := types.Query{
		Point:        &types.GeoPoint{Lat: 44.52, Lon: -110.84},
		RadiusMeters: 2000,
		Categories:   []string{"viewpoint"},
	}
	records, err := local.Fetch(context.Background(), query, providerCfg())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(records) != 1 || records[0].Category != "viewpoint" {
		t.Errorf("records = %+v, want only the viewpoint row", records)
	}
}

func TestLocalFetchMissingRating(t *testing.T) {
	local := openTestDataset(t)
	seedDataset(t, local, types.ProviderRecord{
		ID: "poi-1", Name: "Unrated Trailhead",
		Location: types.GeoPoint{Lat: 44.52, Lon: -110.84},
		Category: "nature",
	})

	query := types.Query{Point: &types.GeoPoint{Lat: 44.52, Lon: -110.84}, RadiusMeters: 2000}
	records, err := local.Fetch(context.Background(), query, providerCfg())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Rating != nil {
		t.Errorf("rating = %v, want nil for NULL column", records[0].Rating)
	}
}

func TestLocalInsertReplacesExisting(t *testing.T) {
	local := openTestDataset(t)
	ctx := context.Background()

	base := types.ProviderRecord{
		ID: "poi-1", Name: "Old Name",
		Location: types.GeoPoint{Lat: 44.52, Lon: -110.84},
		Category: "nature",
	}
	seedDataset(t, local, base)

	base.Name = "New Name"
	if err := local.Insert(ctx, base); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	query := types.Query{Point: &types.GeoPoint{Lat: 44.52, Lon: -110.84}, RadiusMeters: 2000}
	records, err := local.Fetch(ctx, query, providerCfg())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "New Name" {
		t.Errorf("records = %+v, want one row with the replaced name", records)
	}
}
