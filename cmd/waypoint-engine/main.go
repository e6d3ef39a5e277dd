// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the waypoint-engine CLI.
// Implements: prd001-aggregation, prd002-merge, prd003-cache,
//             prd004-providers (CLI surface).
// See docs/ARCHITECTURE § Discovery Pipeline, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/waypoint-engine/internal/secrets"
	"github.com/pdiddy/waypoint-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when non-empty, otherwise the secret
// value for key if one was loaded.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the waypoint-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "waypoint-engine",
	Short: "Multi-provider point-of-interest discovery for road trips",
	Long: `waypoint-engine discovers points of interest along a trip: it queries
several data providers (OpenStreetMap Overpass, OpenTripMap, iNaturalist,
local datasets) concurrently, merges and ranks their results into one
deduplicated list, and caches answers per query.

Use discover for queries, providers to inspect the configured sources,
and cache to inspect or invalidate cached results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		for _, k := range secrets.Unrecognized(s) {
			fmt.Fprintf(os.Stderr, "warning: unrecognized secret %q (check the key file name)\n", k)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./waypoint-engine.yaml or ~/.config/waypoint-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("waypoint-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "waypoint-engine"))
		}
	}

	viper.SetEnvPrefix("WAYPOINT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// discoveryConfig assembles the pipeline config from viper and loaded
// secrets. The core packages receive this struct explicitly and never
// touch viper themselves.
func discoveryConfig() types.DiscoveryConfig {
	viper.SetDefault("providers.enable_overpass", true)
	viper.SetDefault("providers.enable_opentripmap", true)
	viper.SetDefault("providers.enable_inaturalist", true)
	viper.SetDefault("merge.provider_priority", []string{"local", "opentripmap", "overpass", "inaturalist"})

	cfg := types.DiscoveryConfig{
		Providers: types.ProviderConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("providers.timeout"),
				UserAgent: viper.GetString("providers.user_agent"),
			},
			PerProviderTimeout: viper.GetDuration("providers.per_provider_timeout"),
			MaxResults:         viper.GetInt("providers.max_results"),
			EnableOverpass:     viper.GetBool("providers.enable_overpass"),
			EnableOpenTripMap:  viper.GetBool("providers.enable_opentripmap"),
			EnableINaturalist:  viper.GetBool("providers.enable_inaturalist"),
			OpenTripMapAPIKey:  secretDefault(secrets.KeyOpenTripMapAPI, viper.GetString("providers.opentripmap_api_key")),
			LocalDatasetPath:   viper.GetString("providers.local_dataset_path"),
		},
		Merge: types.MergeConfig{
			ProximityMeters:  viper.GetFloat64("merge.proximity_meters"),
			NameSimilarity:   viper.GetFloat64("merge.name_similarity"),
			NeutralRating:    viper.GetFloat64("merge.neutral_rating"),
			ProviderPriority: viper.GetStringSlice("merge.provider_priority"),
		},
		Cache: types.CacheConfig{
			Backend:       types.CacheBackend(viper.GetString("cache.backend")),
			Capacity:      viper.GetInt("cache.capacity"),
			TTL:           viper.GetDuration("cache.ttl"),
			RedisAddr:     viper.GetString("cache.redis_addr"),
			RedisPassword: secretDefault(secrets.KeyRedisPassword, viper.GetString("cache.redis_password")),
			RedisDB:       viper.GetInt("cache.redis_db"),
		},
	}

	// OpenTripMap without a key cannot answer; disable it instead of
	// failing every aggregation.
	if cfg.Providers.OpenTripMapAPIKey == "" {
		cfg.Providers.EnableOpenTripMap = false
	}

	cfg = cfg.Defaults()

	// Overpass usage policy asks heavy users to identify themselves; a
	// configured contact email rides along in the User-Agent.
	if contact := secretDefault(secrets.KeyOverpassContact, ""); contact != "" {
		cfg.Providers.UserAgent += " (" + contact + ")"
	}

	return cfg
}

func durationFlagOrConfig(cmd *cobra.Command, flag string, current time.Duration) time.Duration {
	if cmd.Flags().Changed(flag) {
		d, _ := cmd.Flags().GetDuration(flag)
		return d
	}
	return current
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
