// Package workers sizes the thumbnail generation pool from the CPUs
// actually available to the process.
//
// runtime.NumCPU reports the host's core count, which in a container can
// be far more than the cgroup quota allows. GOMAXPROCS tracks the quota,
// so pool sizes derive from it instead:
//
//	numWorkers := workers.ForMixed(8)
//
// Thumbnailing mixes CPU-bound decoding with file writes, so the pool
// runs at 1.5 workers per available CPU, floored at one and capped by
// the caller's limit. Setting THUMBNAIL_WORKERS overrides the computed
// size for tuning a specific deployment.
package workers
