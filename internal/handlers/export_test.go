package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"texture-index/internal/texture"
)

// =============================================================================
// Export Handler Tests
// =============================================================================

func TestExportWholeIndex(t *testing.T) {
	t.Parallel()

	h, repo, dir := newTestHandlers(t, false)
	repo.add(makeRecord(dir + "/Things/Building/Wall.png"))
	repo.add(makeRecord(dir + "/Things/Building/Door.png"))

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	w := httptest.NewRecorder()
	h.Export(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %q", ct)
	}

	disposition := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disposition, "attachment;") {
		t.Errorf("Expected attachment disposition, got %q", disposition)
	}
	if !strings.Contains(disposition, ".json") {
		t.Errorf("Expected .json filename in disposition, got %q", disposition)
	}

	var records []texture.Record
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}

	// A parameterless export must dump everything, not run a capped search
	if repo.allCalls != 1 {
		t.Errorf("Expected 1 All call, got %d", repo.allCalls)
	}
}

func TestExportIsIndented(t *testing.T) {
	t.Parallel()

	h, repo, dir := newTestHandlers(t, false)
	repo.add(makeRecord(dir + "/Things/Building/Wall.png"))

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	w := httptest.NewRecorder()
	h.Export(w, req)

	if body := w.Body.String(); !strings.HasPrefix(body, "[\n  {") {
		t.Errorf("Expected two-space-indented array, got %q", body[:min(len(body), 20)])
	}
}

func TestExportEmptyIndexIsArray(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	w := httptest.NewRecorder()
	h.Export(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("Expected empty array, got %q", body)
	}
}

func TestExportFilteredIsUncapped(t *testing.T) {
	t.Parallel()

	h, repo, dir := newTestHandlers(t, false)
	repo.add(makeRecord(dir + "/Things/Building/Wall.png"))
	repo.add(makeRecord(dir + "/Things/Building/Door.png"))

	req := httptest.NewRequest(http.MethodGet, "/api/export?category=Things", nil)
	w := httptest.NewRecorder()
	h.Export(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	// Filtered exports go through Search, but without the default result cap
	opts := repo.lastSearchOpts(t)
	if opts.Category != "Things" {
		t.Errorf("Expected category filter, got %+v", opts)
	}
	if opts.Limit != math.MaxInt32 {
		t.Errorf("Expected uncapped limit, got %d", opts.Limit)
	}

	var records []texture.Record
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("Expected 2 records, got %d", len(records))
	}
}

func TestExportRespectsExplicitLimit(t *testing.T) {
	t.Parallel()

	h, repo, dir := newTestHandlers(t, false)
	repo.add(makeRecord(dir + "/Things/Building/Wall.png"))
	repo.add(makeRecord(dir + "/Things/Building/Door.png"))

	req := httptest.NewRequest(http.MethodGet, "/api/export?category=Things&limit=1", nil)
	w := httptest.NewRecorder()
	h.Export(w, req)

	if opts := repo.lastSearchOpts(t); opts.Limit != 1 {
		t.Errorf("Expected limit 1 passed through, got %d", opts.Limit)
	}

	var records []texture.Record
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}
}

func TestExportError(t *testing.T) {
	t.Parallel()

	h, repo, _ := newTestHandlers(t, false)
	repo.allErr = errors.New("database locked")

	req := httptest.NewRequest(http.MethodGet, "/api/export", nil)
	w := httptest.NewRecorder()
	h.Export(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
}
