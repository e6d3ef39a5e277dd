// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// localSchema holds the offline POI dataset. A dataset file is produced
// out-of-band (regional OSM extracts, curated trip guides) and queried
// read-only here.
const localSchema = `
CREATE TABLE IF NOT EXISTS pois (
	id          TEXT NOT NULL,
	name        TEXT NOT NULL,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	category    TEXT NOT NULL,
	rating      REAL,
	description TEXT,
	PRIMARY KEY (id)
);
CREATE INDEX IF NOT EXISTS idx_pois_location ON pois (lat, lon);
CREATE INDEX IF NOT EXISTS idx_pois_category ON pois (category);
`

// Local serves records from a SQLite POI dataset, so discovery keeps
// working offline and in regions the live APIs cover poorly (R2.4).
type Local struct {
	db   *sql.DB
	path string
}

// OpenLocal opens (or creates) the dataset at path and ensures the
// schema exists.
func OpenLocal(path string) (*Local, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening local dataset: %w", err)
	}
	if _, err := db.Exec(localSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing local dataset schema: %w", err)
	}
	return &Local{db: db, path: path}, nil
}

// Close releases the database handle.
func (p *Local) Close() error { return p.db.Close() }

// Name returns the provider identifier.
func (p *Local) Name() string { return "local" }

// Fetch selects dataset rows inside the query bounds, optionally
// filtered by category.
func (p *Local) Fetch(ctx context.Context, query types.Query, cfg types.ProviderConfig) ([]types.ProviderRecord, error) {
	b := queryBounds(query)
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	q := `SELECT id, name, lat, lon, category, rating, description
		FROM pois
		WHERE lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`
	args := []any{b.South, b.North, b.West, b.East}

	if len(query.Categories) > 0 {
		placeholders := strings.Repeat("?,", len(query.Categories))
		q += fmt.Sprintf(" AND category IN (%s)", placeholders[:len(placeholders)-1])
		for _, c := range query.Categories {
			args = append(args, c)
		}
	}
	q += " ORDER BY rating DESC NULLS LAST, id LIMIT ?"
	args = append(args, maxResults)

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying local dataset: %w", err)
	}
	defer rows.Close()

	var records []types.ProviderRecord
	for rows.Next() {
		var (
			r           types.ProviderRecord
			rating      sql.NullFloat64
			description sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Location.Lat, &r.Location.Lon,
			&r.Category, &rating, &description); err != nil {
			return nil, fmt.Errorf("scanning local dataset row: %w", err)
		}
		r.Provider = "local"
		if rating.Valid {
			r.Rating = ratingPtr(rating.Float64)
		}
		if description.Valid && description.String != "" {
			r.Payload = map[string]string{"description": description.String}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Insert adds one POI to the dataset. Used by the dataset import
// tooling and tests.
func (p *Local) Insert(ctx context.Context, r types.ProviderRecord) error {
	var rating any
	if r.Rating != nil {
		rating = *r.Rating
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pois (id, name, lat, lon, category, rating, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Location.Lat, r.Location.Lon, r.Category, rating, r.Payload["description"])
	if err != nil {
		return fmt.Errorf("inserting poi %s: %w", r.ID, err)
	}
	return nil
}
