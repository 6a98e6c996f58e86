// Package memory keeps the indexer inside its container memory limit.
//
// Go picks up CPU quotas on its own (GOMAXPROCS reads the cgroup), but it
// never reads the cgroup memory limit. A pod that decodes a few thousand
// textures without a GOMEMLIMIT runs the heap straight into the kernel OOM
// killer. This package closes that gap in two pieces: limit configuration
// at startup and backpressure while the process runs.
//
// # Configuring the limit
//
// Call [ConfigureFromEnv] first thing in main, before any large allocation:
//
//	func main() {
//	    result := memory.ConfigureFromEnv()
//	    startup.LogMemoryConfig(result)
//	    ...
//	}
//
// Three environment variables drive it:
//
//   - GOMEMLIMIT: the standard runtime variable ("400MiB", "1GiB"). When
//     set it wins outright and nothing else is consulted.
//   - MEMORY_LIMIT: the container limit in bytes. Inject it with the
//     Kubernetes Downward API so the deployment manifest stays the single
//     source of truth for sizing.
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap, default
//     0.85. Lower it when libvips is doing heavy decode work; its buffers
//     live outside the heap and need their own headroom.
//
// A Downward API stanza for the deployment:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// GOMEMLIMIT is a soft limit: the collector works harder as the heap
// approaches it, but CGO allocations and mmap are outside its reach. That
// is exactly why the ratio reserves a slice of the container for libvips.
//
// # Backpressure
//
// Thumbnail pre-warming decodes textures as fast as the pool allows, which
// on a large library can outrun the collector. [Monitor] samples the heap
// and pauses that work above a critical watermark:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
//
//	thumbGen.SetThrottle(monitor)
//
// Workers call WaitIfPaused between units of work. The call is free when
// usage is normal, blocks while the heap sits above the critical mark, and
// returns false when the monitor shuts down so workers can exit cleanly.
// With the default config work pauses at 85% of the limit and resumes once
// usage falls under 70%; the gap keeps the gate from chattering.
package memory
