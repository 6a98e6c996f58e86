package handlers

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"texture-index/internal/export"
	"texture-index/internal/logging"
	"texture-index/internal/texture"
)

// Export streams the matching records as an indented JSON array download.
// With no filter parameters the whole index is exported; filters narrow
// the set the same way /api/search does, but without the implicit result
// cap unless the caller passes limit explicitly.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	opts := parseSearchOptions(r.URL.Query())

	var (
		records []texture.Record
		err     error
	)
	if opts == (texture.SearchOptions{}) {
		records, err = h.repo.All(r.Context())
	} else {
		if opts.Limit == 0 {
			opts.Limit = math.MaxInt32
		}
		records, err = h.repo.Search(r.Context(), opts)
	}
	if err != nil {
		logging.Error("Export query failed: %v", err)
		writeJSONError(w, "Export failed", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("textures_%s.json", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteJSON(w, records); err != nil {
		logging.Error("Export write failed: %v", err)
	}
}
