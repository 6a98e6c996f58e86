package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultMetricsConfig(t *testing.T) {
	config := DefaultMetricsConfig()

	want := []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"}
	if len(config.SkipPaths) != len(want) {
		t.Fatalf("SkipPaths = %v, want %v", config.SkipPaths, want)
	}
	for i, path := range want {
		if config.SkipPaths[i] != path {
			t.Errorf("SkipPaths[%d] = %q, want %q", i, config.SkipPaths[i], path)
		}
	}
}

func TestMetricsPassesRequestsThrough(t *testing.T) {
	var called bool
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	// Both skipped and recorded paths must reach the inner handler
	for _, path := range []string{"/metrics", "/health", "/api/search", "/"} {
		called = false
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if !called {
			t.Errorf("inner handler not reached for %s", path)
		}
		if w.Code != http.StatusOK {
			t.Errorf("status for %s = %d, want 200", path, w.Code)
		}
	}
}

func TestMetricsPreservesStatus(t *testing.T) {
	statuses := []int{
		http.StatusOK,
		http.StatusAccepted,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusConflict,
		http.StatusInternalServerError,
		http.StatusServiceUnavailable,
	}

	for _, status := range statuses {
		handler := Metrics(MetricsConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/test", http.NoBody)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != status {
			t.Errorf("status = %d, want %d", w.Code, status)
		}
	}
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	// Write without an explicit WriteHeader keeps the implicit 200
	rec.Write([]byte("ok"))
	if rec.status != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.status)
	}

	rec.WriteHeader(http.StatusTeapot)
	if rec.status != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.status)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/static/app.js", "/static/{file}"},
		{"/static/img/icon.svg", "/static/{file}"},
		{"/api/search", "/api/search"},
		{"/api/index/status", "/api/index/status"},
		{"/", "/"},
		{"/health", "/health"},
		{"/a/b/c/d/e/f/g", "/a/b/c/{path}"},
		{"/api/v1/users/123", "/api/v1/users/{path}"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNormalizePathBoundsCardinality(t *testing.T) {
	probes := []string{
		"/data/textures/Things/Wall_a.png",
		"/data/textures/Things/Wall_b.png",
		"/data/textures/Things/Building/Wall_c.png",
	}

	seen := make(map[string]bool)
	for _, p := range probes {
		seen[normalizePath(p)] = true
	}

	if len(seen) != 1 {
		t.Errorf("probe paths produced %d labels, want 1: %v", len(seen), seen)
	}
}

func BenchmarkNormalizePath(b *testing.B) {
	paths := []string{
		"/api/search",
		"/static/app.js",
		"/a/b/c/d/e/f",
		"/",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		normalizePath(paths[i%len(paths)])
	}
}
