package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"texture-index/internal/texture"
)

func newStatsCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long: `Prints aggregate statistics for the index: totals, averages, and
per-category and per-format counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, root, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, root *rootOptions, jsonOutput bool) error {
	db, err := openIndex(ctx, root)
	if err != nil {
		return err
	}
	defer closeIndex(cmd, db)

	stats, err := db.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	printStats(cmd.OutOrStdout(), stats)
	return nil
}

func printStats(w io.Writer, stats *texture.Stats) {
	fmt.Fprintln(w, "Texture Index Statistics")
	fmt.Fprintln(w, "========================")
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total Textures:     %d\n", stats.TotalTextures)
	fmt.Fprintf(w, "Average Size:       %s\n", formatSize(int64(stats.AvgFileSize)))
	fmt.Fprintf(w, "Average Dimensions: %.0fx%.0f\n", stats.AvgWidth, stats.AvgHeight)
	fmt.Fprintln(w)

	if len(stats.ByCategory) > 0 {
		fmt.Fprintln(w, "By Category:")
		for _, e := range sortedCounts(stats.ByCategory) {
			fmt.Fprintf(w, "  %-20s %d\n", e.name, e.count)
		}
		fmt.Fprintln(w)
	}

	if len(stats.ByFormat) > 0 {
		fmt.Fprintln(w, "By Format:")
		for _, e := range sortedCounts(stats.ByFormat) {
			fmt.Fprintf(w, "  %-20s %d\n", e.name, e.count)
		}
	}
}

type countEntry struct {
	name  string
	count int
}

// sortedCounts orders map entries by descending count, then name.
func sortedCounts(m map[string]int) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for name, count := range m {
		entries = append(entries, countEntry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	return entries
}
