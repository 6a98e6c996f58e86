package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// probe invokes a health-family handler and decodes the JSON body into
// out when non-nil.
func probe(t *testing.T, fn http.HandlerFunc, method string, out any) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(method, "/probe", nil))
	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("Body not decodable: %v", err)
		}
	}
	return w
}

// =============================================================================
// HealthCheck Tests
// =============================================================================

func TestHealthCheckStarting(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t, false)

	var resp HealthResponse
	w := probe(t, h.HealthCheck, http.MethodGet, &resp)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Code = %d before the first pass, want 503", w.Code)
	}
	if resp.Status != statusStarting {
		t.Errorf("Status = %q, want %q", resp.Status, statusStarting)
	}
	if resp.Ready {
		t.Error("Ready reported before the first pass")
	}
	if resp.Version == "" || resp.GoVersion == "" {
		t.Errorf("Build info missing: version %q, go %q", resp.Version, resp.GoVersion)
	}
}

func TestHealthCheckHealthyAfterIndex(t *testing.T) {
	t.Parallel()

	h, _, dir := newTestHandlers(t, false)
	writePNG(t, filepath.Join(dir, "Things/Building/Wall.png"), 8, 8)
	writePNG(t, filepath.Join(dir, "Things/Building/Door.png"), 8, 8)
	if err := h.indexer.Index(context.Background()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	var resp HealthResponse
	w := probe(t, h.HealthCheck, http.MethodGet, &resp)

	if w.Code != http.StatusOK {
		t.Fatalf("Code = %d after index, want 200", w.Code)
	}
	if resp.Status != statusHealthy || !resp.Ready {
		t.Errorf("Status = %q ready=%v, want %q ready=true", resp.Status, resp.Ready, statusHealthy)
	}
	if resp.TexturesIndexed != 2 || resp.TotalTextures != 2 {
		t.Errorf("Counts = %d indexed, %d total, want 2 and 2", resp.TexturesIndexed, resp.TotalTextures)
	}
	if resp.LastIndexed == "" {
		t.Error("LastIndexed empty after a completed pass")
	}
}

func TestHealthCheckToleratesStatsFailure(t *testing.T) {
	t.Parallel()

	h, repo, dir := newTestHandlers(t, false)
	writePNG(t, filepath.Join(dir, "Wall.png"), 8, 8)
	if err := h.indexer.Index(context.Background()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	repo.statsErr = errors.New("database locked")

	var resp HealthResponse
	w := probe(t, h.HealthCheck, http.MethodGet, &resp)

	if w.Code != http.StatusOK {
		t.Fatalf("Code = %d despite stats failure, want 200", w.Code)
	}
	if resp.TotalTextures != 0 {
		t.Errorf("TotalTextures = %d on stats failure, want omitted", resp.TotalTextures)
	}
}

func TestHealthCheckDegradedOnInitialIndexError(t *testing.T) {
	t.Parallel()

	h, repo, dir := newTestHandlers(t, false)
	writePNG(t, filepath.Join(dir, "Wall.png"), 8, 8)
	repo.upsertErr = errors.New("disk full")

	if err := h.indexer.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer h.indexer.Stop()

	waitFor(t, func() bool {
		return h.indexer.GetHealthStatus().InitialIndexError != ""
	}, "Initial index error never surfaced")

	var resp HealthResponse
	probe(t, h.HealthCheck, http.MethodGet, &resp)

	if resp.Status != statusDegraded {
		t.Errorf("Status = %q, want %q", resp.Status, statusDegraded)
	}
	if resp.InitialIndexError == "" {
		t.Error("InitialIndexError missing from response")
	}
}

// =============================================================================
// Liveness and Readiness Tests
// =============================================================================

func TestLivenessCheck(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t, false)

	var resp map[string]string
	w := probe(t, h.LivenessCheck, http.MethodGet, &resp)

	if w.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", w.Code)
	}
	if resp["status"] != "alive" {
		t.Errorf("Status = %q, want alive", resp["status"])
	}
}

func TestLivenessCheckHead(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t, false)

	w := probe(t, h.LivenessCheck, http.MethodHead, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD carried a body: %q", w.Body.String())
	}
}

func TestReadinessCheckNotReady(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t, false)

	var resp map[string]string
	w := probe(t, h.ReadinessCheck, http.MethodGet, &resp)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Code = %d, want 503", w.Code)
	}
	if resp["status"] != "not_ready" {
		t.Errorf("Status = %q, want not_ready", resp["status"])
	}
}

func TestReadinessCheckReady(t *testing.T) {
	t.Parallel()

	h, _, dir := newTestHandlers(t, false)
	writePNG(t, filepath.Join(dir, "Wall.png"), 8, 8)
	if err := h.indexer.Index(context.Background()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	var resp map[string]string
	w := probe(t, h.ReadinessCheck, http.MethodGet, &resp)

	if w.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", w.Code)
	}
	if resp["status"] != "ready" {
		t.Errorf("Status = %q, want ready", resp["status"])
	}
}
