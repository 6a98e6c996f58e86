package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"texture-index/internal/metrics"
)

// MetricsConfig controls which requests are recorded.
type MetricsConfig struct {
	// SkipPaths excludes prefixes from recording, keeping the scrape
	// endpoint and probes out of their own numbers.
	SkipPaths []string
}

// DefaultMetricsConfig skips the metrics endpoint and the health probes.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{
			"/metrics",
			"/health", "/healthz", "/livez", "/readyz",
		},
	}
}

func (c MetricsConfig) skip(path string) bool {
	return slices.ContainsFunc(c.SkipPaths, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// statusRecorder remembers the status code for the request counter label.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Metrics returns middleware that feeds the Prometheus request counters
// and latency histogram.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			begun := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := normalizePath(r.URL.Path)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(begun).Seconds())
		})
	}
}

// normalizePath bounds label cardinality. API routes put texture paths in
// query parameters, so the only unbounded URL paths are static assets and
// random probe traffic.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/static/") {
		return "/static/{file}"
	}

	if parts := strings.Split(path, "/"); len(parts) > 4 {
		return strings.Join(parts[:4], "/") + "/{path}"
	}
	return path
}
