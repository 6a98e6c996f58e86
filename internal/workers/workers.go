package workers

import (
	"os"
	"runtime"
	"strconv"
)

// mixedMultiplier reflects the thumbnail workload profile: decoding is
// CPU-bound but cache writes are not, so the pool runs a little wider
// than the CPU count.
const mixedMultiplier = 1.5

// ForMixed returns the pool size for mixed decode-and-write work, capped
// at limit (0 means uncapped).
//
// GOMAXPROCS already reflects container CPU quotas, so the computed size
// respects Kubernetes limits without any cgroup probing here. Operators
// can force a size with THUMBNAIL_WORKERS; the cap still applies.
func ForMixed(limit int) int {
	if n, ok := envOverride(); ok {
		return capSize(n, limit)
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * mixedMultiplier)
	if n < 1 {
		n = 1
	}
	return capSize(n, limit)
}

// envOverride reads THUMBNAIL_WORKERS. Zero, negative, and non-numeric
// values are ignored rather than clamped.
func envOverride() (int, bool) {
	raw := os.Getenv("THUMBNAIL_WORKERS")
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func capSize(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
