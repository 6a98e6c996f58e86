package cmd

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"texture-index/internal/export"
	"texture-index/internal/texture"
)

// exportOptions holds CLI flags for export.
type exportOptions struct {
	out         string
	category    string
	subcategory string
	format      string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export texture records as JSON",
		Long: `Writes the index as an indented JSON array, optionally filtered.
Without --out the array goes to stdout for piping.

Examples:
  texidx export --out textures.json
  texidx export --category Things | jq '.[].path'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "Filter by category")
	cmd.Flags().StringVar(&opts.subcategory, "subcategory", "", "Filter by subcategory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Filter by format extension (e.g. .png)")

	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, root *rootOptions, opts exportOptions) error {
	db, err := openIndex(ctx, root)
	if err != nil {
		return err
	}
	defer closeIndex(cmd, db)

	searchOpts := texture.SearchOptions{
		Category:    opts.category,
		Subcategory: opts.subcategory,
		Format:      opts.format,
	}

	var records []texture.Record
	if searchOpts == (texture.SearchOptions{}) {
		records, err = db.All(ctx)
	} else {
		// Filtered exports are complete too, not capped at the search default
		searchOpts.Limit = math.MaxInt32
		records, err = db.Search(ctx, searchOpts)
	}
	if err != nil {
		return fmt.Errorf("export query failed: %w", err)
	}

	if opts.out == "" {
		return export.WriteJSON(cmd.OutOrStdout(), records)
	}

	if err := export.WriteFile(opts.out, records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d textures to %s\n", len(records), opts.out)
	return nil
}
