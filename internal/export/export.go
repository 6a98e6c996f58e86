// Package export writes query result sets as indented JSON arrays, either
// to an open writer (HTTP download) or to a file path (CLI).
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"texture-index/internal/logging"
	"texture-index/internal/texture"
)

// WriteJSON streams records to w as a two-space-indented JSON array. An
// empty result set is written as [], not null.
func WriteJSON(w io.Writer, records []texture.Record) error {
	if records == nil {
		records = []texture.Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteFile writes records as an indented JSON array to path, replacing
// any existing file.
func WriteFile(path string, records []texture.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", closeErr)
		}
	}()

	if err = WriteJSON(f, records); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	logging.Info("Exported %d texture records to %s", len(records), path)
	return nil
}
