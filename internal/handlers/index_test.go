package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(time.Millisecond)
	}
}

// =============================================================================
// TriggerIndex Tests
// =============================================================================

func TestTriggerIndexStartsBackgroundPass(t *testing.T) {
	t.Parallel()

	h, repo, dir := newTestHandlers(t, false)
	writePNG(t, filepath.Join(dir, "Things/Building/Wall.png"), 8, 8)

	req := httptest.NewRequest(http.MethodPost, "/api/index", nil)
	w := httptest.NewRecorder()
	h.TriggerIndex(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["status"] != "started" {
		t.Errorf("Expected status started, got %q", resp["status"])
	}

	// The pass runs in the background; wait for it to land the record
	waitFor(t, func() bool {
		return !h.indexer.LastIndexTime().IsZero() && !h.indexer.IsIndexing()
	}, "Background index never completed")

	repo.mu.Lock()
	indexed := len(repo.records)
	repo.mu.Unlock()
	if indexed != 1 {
		t.Errorf("Expected 1 indexed record, got %d", indexed)
	}
}

func TestTriggerIndexConflictWhileRunning(t *testing.T) {
	t.Parallel()

	h, repo, dir := newTestHandlers(t, false)
	writePNG(t, filepath.Join(dir, "Things/Building/Wall.png"), 8, 8)

	// Hold the running pass open by blocking repository writes
	gate := make(chan struct{})
	repo.gate = gate

	done := make(chan error, 1)
	go func() {
		done <- h.indexer.Index(context.Background())
	}()
	waitFor(t, h.indexer.IsIndexing, "Index pass never started")

	req := httptest.NewRequest(http.MethodPost, "/api/index", nil)
	w := httptest.NewRecorder()
	h.TriggerIndex(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["status"] != "already_running" {
		t.Errorf("Expected status already_running, got %q", resp["status"])
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Index pass failed: %v", err)
	}
}

// =============================================================================
// IndexStatus Tests
// =============================================================================

func TestIndexStatusBeforeFirstPass(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/index/status", nil)
	w := httptest.NewRecorder()
	h.IndexStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp IndexStatusResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Indexing {
		t.Error("Expected indexing false before first pass")
	}
	if resp.LastIndexed != "" {
		t.Errorf("Expected no lastIndexed before first pass, got %q", resp.LastIndexed)
	}
	if resp.FilesProcessed != 0 {
		t.Errorf("Expected 0 files processed, got %d", resp.FilesProcessed)
	}
}

func TestIndexStatusAfterPass(t *testing.T) {
	t.Parallel()

	h, _, dir := newTestHandlers(t, false)
	writePNG(t, filepath.Join(dir, "Things/Building/Wall.png"), 8, 8)
	writePNG(t, filepath.Join(dir, "Things/Building/Door.png"), 8, 8)

	if err := h.indexer.Index(context.Background()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/index/status", nil)
	w := httptest.NewRecorder()
	h.IndexStatus(w, req)

	var resp IndexStatusResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Indexing {
		t.Error("Expected indexing false after pass completed")
	}
	if resp.FilesProcessed != 2 {
		t.Errorf("Expected 2 files processed, got %d", resp.FilesProcessed)
	}
	if resp.FilesIndexed != 2 {
		t.Errorf("Expected 2 files indexed, got %d", resp.FilesIndexed)
	}
	if resp.LastIndexed == "" {
		t.Error("Expected lastIndexed after pass completed")
	}
	if _, err := time.Parse("2006-01-02T15:04:05Z07:00", resp.LastIndexed); err != nil {
		t.Errorf("lastIndexed is not RFC3339: %v", err)
	}
}
