// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes a result as a human-readable table to w.
func FormatTable(r Result, w io.Writer) {
	if len(r.Records) == 0 {
		fmt.Fprintln(w, "No places found.")
		reportFailures(r, w)
		return
	}

	fmt.Fprintf(w, "%-4s  %-40s  %-12s  %-6s  %-9s  %s\n",
		"Rank", "Name", "Category", "Score", "Location", "Providers")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for i, rec := range r.Records {
		name := rec.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		category := rec.Category
		if len(category) > 12 {
			category = category[:9] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-40s  %-12s  %-6.2f  %8.4f,%.4f  %s\n",
			i+1, name, category, rec.Score,
			rec.Location.Lat, rec.Location.Lon,
			strings.Join(rec.ContributingProviders, ","))
	}

	fmt.Fprintf(w, "\n%d places", len(r.Records))
	if r.CacheHit {
		fmt.Fprintf(w, " (cached)")
	}
	fmt.Fprintln(w)
	reportFailures(r, w)
}

func reportFailures(r Result, w io.Writer) {
	for _, f := range r.Failures {
		fmt.Fprintf(w, "provider %s failed (%s): %v\n", f.Provider, f.Class, f.Err)
	}
}

// FormatJSON writes the ranked records as indented JSON to w.
func FormatJSON(r Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Records)
}
