package handlers

import (
	"net/http"
	"runtime"
	"time"

	"texture-index/internal/logging"
	"texture-index/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status            string `json:"status"`
	Ready             bool   `json:"ready"`
	Version           string `json:"version"`
	Uptime            string `json:"uptime"`
	Indexing          bool   `json:"indexing"`
	LastIndexed       string `json:"lastIndexed,omitempty"`
	InitialIndexError string `json:"initialIndexError,omitempty"`

	TexturesIndexed int64 `json:"texturesIndexed"`
	TexturesSkipped int64 `json:"texturesSkipped"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`

	TotalTextures int `json:"totalTextures,omitempty"`
}

// HealthCheck reports service health. Not ready maps to 503 so
// orchestrators hold traffic until the index can serve; a failed initial
// pass reports degraded but keeps answering.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	hs := h.indexer.GetHealthStatus()

	response := HealthResponse{
		Status:          statusHealthy,
		Ready:           hs.Ready,
		Version:         startup.Version,
		Uptime:          hs.Uptime,
		Indexing:        hs.Indexing,
		TexturesIndexed: hs.TexturesIndexed,
		TexturesSkipped: hs.TexturesSkipped,
		GoVersion:       runtime.Version(),
		NumCPU:          runtime.NumCPU(),
		NumGoroutine:    runtime.NumGoroutine(),
	}
	if !hs.Ready {
		response.Status = statusStarting
	}
	if hs.InitialIndexError != "" {
		response.Status = statusDegraded
		response.InitialIndexError = hs.InitialIndexError
	}
	if !hs.LastIndexed.IsZero() {
		response.LastIndexed = hs.LastIndexed.Format(time.RFC3339)
	}

	// A stats failure must not take down the health endpoint, so the
	// summary field is simply dropped
	if stats, err := h.repo.Stats(r.Context()); err != nil {
		logging.Warn("Health check stats query failed: %v", err)
	} else if stats.TotalTextures > 0 {
		response.TotalTextures = stats.TotalTextures
	}

	code := http.StatusOK
	if !hs.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONWith(w, code, response)
}

// LivenessCheck answers 200 whenever the process is up. HEAD requests
// get headers only.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSONStatus(w, "alive")
}

// ReadinessCheck gates traffic on the index being usable.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.indexer.IsReady() {
		writeJSONStatus(w, "ready")
		return
	}
	writeJSONWith(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
