// Package cmd provides the CLI commands for texidx.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"texture-index/internal/database"
	"texture-index/internal/logging"
	"texture-index/internal/startup"
)

// databaseFile is the index filename shared with the server.
const databaseFile = "texture_index.db"

// rootOptions holds the persistent flags shared by all subcommands.
type rootOptions struct {
	textureDir string
	dbPath     string
	verbose    bool
}

// NewRootCmd creates the root command for the texidx CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "texidx",
		Short: "Texture index maintenance CLI",
		Long: `texidx maintains a texture index database directly, without a running
server: one-shot indexing, searching, statistics, and JSON export.

The database defaults to texture_index.db inside the texture root, so a
bare 'texidx index' run in a texture directory is self-contained. Point
--db at a server's database file to operate on a live index instead.`,
		Version: startup.GetBuildInfo().Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Store and indexer logs stay off stderr unless asked for
			if opts.verbose {
				logging.SetLevel(logging.LevelDebug)
			} else {
				logging.SetLevel(logging.LevelWarn)
			}
		},
	}

	cmd.SetVersionTemplate("texidx version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.textureDir, "textures", defaultTextureDir(), "Texture root directory")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Index database file (default <textures>/texture_index.db)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newExportCmd(opts))

	return cmd
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// defaultTextureDir prefers the server's TEXTURE_DIR convention, falling
// back to the current directory for standalone use.
func defaultTextureDir() string {
	if dir := os.Getenv("TEXTURE_DIR"); dir != "" {
		return dir
	}
	return "."
}

// databasePath resolves the index file location. Flag beats environment,
// environment beats the textures-adjacent default.
func (o *rootOptions) databasePath() string {
	if o.dbPath != "" {
		return o.dbPath
	}
	if dir := os.Getenv("DATABASE_DIR"); dir != "" {
		return filepath.Join(dir, databaseFile)
	}
	return filepath.Join(o.textureDir, databaseFile)
}

// openIndex opens an existing index database, failing with a hint when
// none has been created yet.
func openIndex(ctx context.Context, opts *rootOptions) (*database.Database, error) {
	dbPath := opts.databasePath()
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no index database at %s; run 'texidx index' first", dbPath)
	}
	return database.New(ctx, dbPath)
}

// closeIndex closes db, downgrading failures to a stderr warning.
func closeIndex(cmd *cobra.Command, db *database.Database) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close database: %v\n", err)
	}
}

// stdoutIsTerminal reports whether command output goes to an interactive
// terminal. Tests swap in a buffer, which reports false.
func stdoutIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatSize renders a byte count in human units.
func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
