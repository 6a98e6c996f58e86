package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"texture-index/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit handed to the Go
// heap. The remainder stays free for libvips decode buffers, which allocate
// outside the runtime and are invisible to the garbage collector.
const DefaultMemoryRatio = 0.85

// Source values reported in ConfigResult.
const (
	sourceGOMEMLIMIT  = "GOMEMLIMIT"
	sourceMEMORYLIMIT = "MEMORY_LIMIT"
	sourceNone        = "none"
)

// ConfigResult records how the heap limit was derived so startup logging can
// show operators what took effect.
type ConfigResult struct {
	// Configured is true when a limit is in force.
	Configured bool

	// Source names the winning input: "GOMEMLIMIT", "MEMORY_LIMIT", or "none".
	Source string

	// ContainerLimit is the raw container limit in bytes, zero unless
	// MEMORY_LIMIT supplied it.
	ContainerLimit int64

	// GoMemLimit is the heap limit in force, in bytes.
	GoMemLimit int64

	// Ratio is the fraction of ContainerLimit given to the heap.
	Ratio float64
}

// ConfigureFromEnv derives GOMEMLIMIT from the container memory limit. Call
// it before the first large allocation.
//
// GOMEMLIMIT, when set, wins outright since the runtime already honors it.
// Otherwise MEMORY_LIMIT (bytes, typically injected through the Kubernetes
// Downward API) is scaled by MEMORY_RATIO and applied.
func ConfigureFromEnv() ConfigResult {
	if raw := os.Getenv("GOMEMLIMIT"); raw != "" {
		return passthroughLimit(raw)
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT unset, leaving GOMEMLIMIT alone")
		return ConfigResult{Source: sourceNone}
	}

	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logging.Warn("Ignoring unparseable MEMORY_LIMIT %q: %v", raw, err)
		return ConfigResult{Source: sourceNone}
	}

	ratio := heapRatio()
	heapLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(heapLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(heapLimit), ratio*100, formatBytes(containerLimit))

	return ConfigResult{
		Configured:     true,
		Source:         sourceMEMORYLIMIT,
		ContainerLimit: containerLimit,
		GoMemLimit:     heapLimit,
		Ratio:          ratio,
	}
}

// passthroughLimit reports a limit the runtime already picked up from the
// GOMEMLIMIT environment variable at startup.
func passthroughLimit(raw string) ConfigResult {
	var result ConfigResult

	// A negative argument queries the current limit without changing it.
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
		result = ConfigResult{
			Configured: true,
			Source:     sourceGOMEMLIMIT,
			GoMemLimit: limit,
		}
	}

	logging.Info("GOMEMLIMIT set via environment: %s", raw)
	return result
}

// heapRatio returns MEMORY_RATIO when it parses into (0.0, 1.0], otherwise
// the default share.
func heapRatio() float64 {
	raw := os.Getenv("MEMORY_RATIO")
	if raw == "" {
		return DefaultMemoryRatio
	}

	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logging.Warn("Ignoring unparseable MEMORY_RATIO %q: %v, using %.2f", raw, err, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	if ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q outside (0.0, 1.0], using %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// formatBytes renders a byte count in binary units for log lines.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}

	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	value := float64(n)
	i := -1
	for value >= unit && i < len(suffixes)-1 {
		value /= unit
		i++
	}
	return strconv.FormatFloat(value, 'f', 1, 64) + " " + suffixes[i]
}
