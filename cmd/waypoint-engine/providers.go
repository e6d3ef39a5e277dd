// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/waypoint-engine/internal/aggregate"
	"github.com/pdiddy/waypoint-engine/internal/providers"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the configured data providers",
	Long: `Providers shows which data sources are enabled under the current
configuration, in the merge tie-break priority order.`,
	RunE: runProviders,
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg := discoveryConfig()

	ps, err := providers.FromConfig(cfg.Providers, nil)
	if err != nil {
		return err
	}

	if len(ps) == 0 {
		fmt.Println("No providers enabled.")
		return nil
	}

	orderProviders(ps, cfg.Merge.ProviderPriority)

	fmt.Fprintf(os.Stdout, "%-14s  %s\n", "Provider", "Priority")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 30))
	rank := make(map[string]int, len(cfg.Merge.ProviderPriority))
	for i, name := range cfg.Merge.ProviderPriority {
		rank[name] = i + 1
	}
	for _, p := range ps {
		priority := "-"
		if r, ok := rank[p.Name()]; ok {
			priority = fmt.Sprintf("%d", r)
		}
		fmt.Fprintf(os.Stdout, "%-14s  %s\n", p.Name(), priority)
	}
	return nil
}

// orderProviders sorts the list into the merge tie-break priority
// order; providers absent from the priority list come last, by name.
func orderProviders(ps []aggregate.Provider, priority []string) {
	rank := make(map[string]int, len(priority))
	for i, name := range priority {
		rank[name] = i
	}
	sort.SliceStable(ps, func(i, j int) bool {
		ri, iok := rank[ps[i].Name()]
		rj, jok := rank[ps[j].Name()]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return ps[i].Name() < ps[j].Name()
		}
	})
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
