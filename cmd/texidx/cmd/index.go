package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"texture-index/internal/database"
	"texture-index/internal/indexer"
)

func newIndexCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan the texture directory and update the index",
		Long: `Runs one indexing pass over the texture root: new and changed
textures are decoded, hashed, and upserted; unchanged files are skipped
by modification time. Prints a summary when the pass completes.

Examples:
  texidx index
  texidx --textures ./Mods/Core/Textures index`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, root)
		},
	}

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, root *rootOptions) error {
	w := cmd.OutOrStdout()

	if _, err := os.Stat(root.textureDir); err != nil {
		return fmt.Errorf("texture directory %s is not accessible: %w", root.textureDir, err)
	}

	dbPath := root.databasePath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := database.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer closeIndex(cmd, db)

	idx := indexer.New(db, root.textureDir, time.Hour)

	// Live progress is redrawn in place, so terminal only
	var stopProgress func()
	if stdoutIsTerminal(cmd) {
		stopProgress = reportProgress(w, idx)
	}

	start := time.Now()
	err = idx.Index(ctx)
	if stopProgress != nil {
		stopProgress()
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	p := idx.GetProgress()
	fmt.Fprintf(w, "Indexed %s in %s: %d files scanned, %d added or updated, %d unchanged, %d failed\n",
		root.textureDir, time.Since(start).Round(time.Millisecond),
		p.FilesProcessed, p.FilesIndexed, p.FilesSkipped, p.FilesFailed)
	return nil
}

// reportProgress redraws a one-line scan status until the returned stop
// function is called.
func reportProgress(w io.Writer, idx *indexer.Indexer) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Fprint(w, "\r\033[K")
				return
			case <-ticker.C:
				p := idx.GetProgress()
				fmt.Fprintf(w, "\r\033[K  %d files scanned (%d indexed, %d unchanged)",
					p.FilesProcessed, p.FilesIndexed, p.FilesSkipped)
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}
