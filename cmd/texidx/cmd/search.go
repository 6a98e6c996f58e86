package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"texture-index/internal/export"
	"texture-index/internal/texture"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	category    string
	subcategory string
	format      string
	minWidth    int
	maxWidth    int
	minHeight   int
	maxHeight   int
	limit       int
	jsonOutput  bool
	exportPath  string
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [filename]",
		Short: "Search indexed textures",
		Long: `Searches the index by filename substring and metadata filters.
Matches print as an aligned table on a terminal and as tab-separated
lines when piped.

Examples:
  texidx search wall
  texidx search --category Things --format .png
  texidx search door --min-width 256 --json
  texidx search --category UI --export ui_textures.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := ""
			if len(args) > 0 {
				filename = args[0]
			}
			return runSearch(cmd.Context(), cmd, root, filename, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "Filter by category")
	cmd.Flags().StringVar(&opts.subcategory, "subcategory", "", "Filter by subcategory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Filter by format extension (e.g. .png)")
	cmd.Flags().IntVar(&opts.minWidth, "min-width", 0, "Minimum width in pixels")
	cmd.Flags().IntVar(&opts.maxWidth, "max-width", 0, "Maximum width in pixels")
	cmd.Flags().IntVar(&opts.minHeight, "min-height", 0, "Minimum height in pixels")
	cmd.Flags().IntVar(&opts.maxHeight, "max-height", 0, "Maximum height in pixels")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default: store cap)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&opts.exportPath, "export", "", "Write results as JSON to a file")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, root *rootOptions, filename string, opts searchOptions) error {
	db, err := openIndex(ctx, root)
	if err != nil {
		return err
	}
	defer closeIndex(cmd, db)

	results, err := db.Search(ctx, texture.SearchOptions{
		Filename:    filename,
		Category:    opts.category,
		Subcategory: opts.subcategory,
		Format:      opts.format,
		MinWidth:    opts.minWidth,
		MaxWidth:    opts.maxWidth,
		MinHeight:   opts.minHeight,
		MaxHeight:   opts.maxHeight,
		Limit:       opts.limit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if opts.exportPath != "" {
		if err := export.WriteFile(opts.exportPath, results); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d textures to %s\n", len(results), opts.exportPath)
		return nil
	}

	if opts.jsonOutput {
		return export.WriteJSON(cmd.OutOrStdout(), results)
	}

	return printRecords(cmd, results)
}

// printRecords writes results as an aligned table on a terminal and as
// tab-separated lines otherwise.
func printRecords(cmd *cobra.Command, records []texture.Record) error {
	w := cmd.OutOrStdout()

	if len(records) == 0 {
		fmt.Fprintln(w, "No textures matched.")
		return nil
	}

	if !stdoutIsTerminal(cmd) {
		// Plain rows for scripts: path, category, dimensions, size
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\n", rec.Path, rec.Category, rec.Width, rec.Height, rec.FileSize)
		}
		return nil
	}

	// Clip the path column so rows stay on one line
	maxPath := 0
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 60 {
		maxPath = width - 40
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tDIMENSIONS\tSIZE\tPATH")
	fmt.Fprintln(tw, "--------\t----------\t----\t----")
	for _, rec := range records {
		path := rec.Path
		if maxPath > 0 && len(path) > maxPath {
			path = "..." + path[len(path)-maxPath+3:]
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%s\t%s\n", rec.Category, rec.Width, rec.Height, formatSize(rec.FileSize), path)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d textures\n", len(records))
	return nil
}
