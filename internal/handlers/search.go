package handlers

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"texture-index/internal/logging"
	"texture-index/internal/texture"
)

// SearchResponse wraps a result set with its size so clients can render
// "N matches" without counting.
type SearchResponse struct {
	Results []texture.Record `json:"results"`
	Count   int              `json:"count"`
}

// CategoriesResponse lists the distinct categories and formats present in
// the index, for populating filter dropdowns.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Formats    []string `json:"formats"`
}

// parseSearchOptions builds query predicates from URL parameters. Missing
// and unparseable numeric parameters are left unset.
func parseSearchOptions(query url.Values) texture.SearchOptions {
	opts := texture.SearchOptions{
		Filename:    query.Get("filename"),
		Category:    query.Get("category"),
		Subcategory: query.Get("subcategory"),
		Format:      query.Get("format"),
	}

	intParams := []struct {
		name string
		dest *int
	}{
		{"minWidth", &opts.MinWidth},
		{"maxWidth", &opts.MaxWidth},
		{"minHeight", &opts.MinHeight},
		{"maxHeight", &opts.MaxHeight},
		{"limit", &opts.Limit},
	}
	for _, p := range intParams {
		if v, err := strconv.Atoi(query.Get(p.name)); err == nil && v > 0 {
			*p.dest = v
		}
	}

	return opts
}

func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	opts := parseSearchOptions(r.URL.Query())

	results, err := h.repo.Search(r.Context(), opts)
	if err != nil {
		logging.Error("Search failed: %v", err)
		writeJSONError(w, "Search failed", http.StatusInternalServerError)
		return
	}

	if results == nil {
		results = []texture.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, SearchResponse{
		Results: results,
		Count:   len(results),
	})
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		logging.Error("Stats query failed: %v", err)
		writeJSONError(w, "Stats query failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, stats)
}

// GetCategories reports the distinct categories and formats currently
// indexed, derived from the stats aggregation.
func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		logging.Error("Categories query failed: %v", err)
		writeJSONError(w, "Categories query failed", http.StatusInternalServerError)
		return
	}

	response := CategoriesResponse{
		Categories: sortedKeys(stats.ByCategory),
		Formats:    sortedKeys(stats.ByFormat),
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
