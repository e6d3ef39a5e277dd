// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/waypoint-engine/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or invalidate the result cache",
	Long: `Cache operates on the shared result cache. The memory backend lives
inside a single process, so these commands are mainly useful with the
redis backend, where entries outlive one CLI run.`,
}

// --- stats subcommand ---

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache hit/miss counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := discoveryConfig()
		c, err := cache.New(cfg.Cache)
		if err != nil {
			return err
		}

		s := c.Stats()
		fmt.Fprintf(os.Stdout, "backend:      %s\n", cfg.Cache.Backend)
		fmt.Fprintf(os.Stdout, "capacity:     %d\n", cfg.Cache.Capacity)
		fmt.Fprintf(os.Stdout, "ttl:          %s\n", cfg.Cache.TTL)
		fmt.Fprintf(os.Stdout, "hits:         %d\n", s.Hits)
		fmt.Fprintf(os.Stdout, "misses:       %d\n", s.Misses)
		fmt.Fprintf(os.Stdout, "evictions:    %d\n", s.Evictions)
		fmt.Fprintf(os.Stdout, "expirations:  %d\n", s.Expirations)
		return nil
	},
}

// --- clear subcommand ---

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Invalidate the cached entry for one query",
	Long: `Clear removes the cached entry for the query described by the same
location flags discover takes, forcing the next discover to re-aggregate.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := queryFromFlags(cmd)
		if err != nil {
			return err
		}
		if query.IsEmpty() {
			return fmt.Errorf("query is empty: provide --lat/--lon, --bbox, or --route")
		}

		cfg := discoveryConfig()
		c, err := cache.New(cfg.Cache)
		if err != nil {
			return err
		}
		if err := c.Invalidate(cmd.Context(), query.Key()); err != nil {
			return err
		}
		fmt.Println("Invalidated.")
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().Float64("lat", 0, "query point latitude")
	cacheClearCmd.Flags().Float64("lon", 0, "query point longitude")
	cacheClearCmd.Flags().Float64("radius", 5000, "search radius in meters")
	cacheClearCmd.Flags().String("bbox", "", "bounding box: south,west,north,east")
	cacheClearCmd.Flags().String("route", "", "route polyline: lat,lon|lat,lon|...")
	cacheClearCmd.Flags().String("categories", "", "filter categories (comma-separated)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
