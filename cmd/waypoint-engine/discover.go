// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/waypoint-engine/internal/cache"
	"github.com/pdiddy/waypoint-engine/internal/discover"
	"github.com/pdiddy/waypoint-engine/internal/observability"
	"github.com/pdiddy/waypoint-engine/internal/providers"
	"github.com/pdiddy/waypoint-engine/pkg/types"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover points of interest near a location, area, or route",
	Long: `Discover queries all configured providers concurrently for points of
interest matching a location (--lat/--lon plus --radius), a bounding box
(--bbox south,west,north,east), or a route (--route "lat,lon|lat,lon|...").
Results are deduplicated across providers, ranked, and cached.

A failed provider produces a warning, not an error; the remaining
providers' results are still returned.`,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	query, err := queryFromFlags(cmd)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load mode: print a previously saved run without re-querying.
	if loadPath, _ := cmd.Flags().GetString("load"); loadPath != "" {
		qf, err := discover.ReadQueryFile(loadPath)
		if err != nil {
			return err
		}
		result := discover.Result{Records: qf.Results, CacheHit: true}
		if jsonOutput {
			return discover.FormatJSON(result, os.Stdout)
		}
		discover.FormatTable(result, os.Stdout)
		return nil
	}

	if query.IsEmpty() {
		return fmt.Errorf("query is empty: provide --lat/--lon, --bbox, or --route")
	}

	cfg := discoveryConfig()
	cfg.Providers.PerProviderTimeout = durationFlagOrConfig(cmd, "timeout", cfg.Providers.PerProviderTimeout)
	if maxResults, _ := cmd.Flags().GetInt("max-results"); maxResults > 0 {
		cfg.Providers.MaxResults = maxResults
	}

	ps, err := providers.FromConfig(cfg.Providers, nil)
	if err != nil {
		return err
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		if err := c.Invalidate(cmd.Context(), query.Key()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache invalidate failed: %v\n", err)
		}
	}

	store := discover.NewStore(c, cfg, observability.NewMetrics())

	result, err := store.Fetch(context.Background(), query, ps, nil, os.Stderr)
	if err != nil {
		return err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := discover.WriteQueryFile(savePath, query, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved to %s\n", savePath)
	}

	if jsonOutput {
		return discover.FormatJSON(result, os.Stdout)
	}
	discover.FormatTable(result, os.Stdout)
	return nil
}

// queryFromFlags builds the query from the location flags.
func queryFromFlags(cmd *cobra.Command) (types.Query, error) {
	var q types.Query

	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		q.Point = &types.GeoPoint{Lat: lat, Lon: lon}
	}

	if bbox, _ := cmd.Flags().GetString("bbox"); bbox != "" {
		area, err := parseBBox(bbox)
		if err != nil {
			return q, err
		}
		q.Area = area
	}

	if route, _ := cmd.Flags().GetString("route"); route != "" {
		path, err := parseRoute(route)
		if err != nil {
			return q, err
		}
		q.Route = path
	}

	q.RadiusMeters, _ = cmd.Flags().GetFloat64("radius")

	if cats, _ := cmd.Flags().GetString("categories"); cats != "" {
		for _, c := range strings.Split(cats, ",") {
			if c = strings.TrimSpace(c); c != "" {
				q.Categories = append(q.Categories, strings.ToLower(c))
			}
		}
	}

	return q, nil
}

// parseBBox parses "south,west,north,east".
func parseBBox(s string) (*types.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid bbox %q: want south,west,north,east", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox coordinate %q: %w", p, err)
		}
		vals[i] = v
	}
	return &types.BoundingBox{South: vals[0], West: vals[1], North: vals[2], East: vals[3]}, nil
}

// parseRoute parses "lat,lon|lat,lon|...".
func parseRoute(s string) (types.RoutePath, error) {
	var path types.RoutePath
	for _, seg := range strings.Split(s, "|") {
		parts := strings.SplitN(seg, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid route point %q: want lat,lon", seg)
		}
		lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("invalid route point %q: want lat,lon", seg)
		}
		path = append(path, types.GeoPoint{Lat: lat, Lon: lon})
	}
	return path, nil
}

func init() {
	discoverCmd.Flags().Float64("lat", 0, "query point latitude")
	discoverCmd.Flags().Float64("lon", 0, "query point longitude")
	discoverCmd.Flags().Float64("radius", 5000, "search radius in meters for point and route queries")
	discoverCmd.Flags().String("bbox", "", "bounding box: south,west,north,east")
	discoverCmd.Flags().String("route", "", "route polyline: lat,lon|lat,lon|...")
	discoverCmd.Flags().String("categories", "", "filter categories (comma-separated: nature, historic, wildlife, viewpoint, tourism)")
	discoverCmd.Flags().Int("max-results", 0, "per-provider result limit (0 = config default)")
	discoverCmd.Flags().Duration("timeout", 0, "per-provider timeout (0 = config default)")
	discoverCmd.Flags().Bool("json", false, "output results as JSON")
	discoverCmd.Flags().Bool("no-cache", false, "bypass the result cache for this query")
	discoverCmd.Flags().String("save", "", "save the query and results to a YAML file")
	discoverCmd.Flags().String("load", "", "print a previously saved query file instead of querying")

	rootCmd.AddCommand(discoverCmd)
}
