// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// QueryFile is the on-disk representation of a discovery query and its
// results. A trip planner can save a discovery run to a file and reload
// it later without re-querying providers.
type QueryFile struct {
	Query   types.Query          `yaml:"query"`
	Results []types.MergedRecord `yaml:"results"`
	Summary QuerySummary         `yaml:"summary"`
}

// QuerySummary stores run statistics and a timestamp.
type QuerySummary struct {
	Total            int       `yaml:"total"`
	CacheHit         bool      `yaml:"cache_hit"`
	ProviderFailures []string  `yaml:"provider_failures,omitempty"`
	Timestamp        time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a query and its result to a YAML file.
func WriteQueryFile(path string, query types.Query, r Result) error {
	qf := QueryFile{
		Query:   query,
		Results: r.Records,
		Summary: QuerySummary{
			Total:     len(r.Records),
			CacheHit:  r.CacheHit,
			Timestamp: time.Now(),
		},
	}
	for _, f := range r.Failures {
		qf.Summary.ProviderFailures = append(qf.Summary.ProviderFailures,
			fmt.Sprintf("%s (%s): %v", f.Provider, f.Class, f.Err))
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
