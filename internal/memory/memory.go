package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"texture-index/internal/logging"
	"texture-index/internal/metrics"
)

// Config bounds heap growth during thumbnail pre-warming. Decoded textures
// can arrive faster than the garbage collector reclaims them, so the monitor
// pauses the warm loop instead of letting the heap climb into the container
// limit.
type Config struct {
	// MemoryLimitBytes overrides the limit. Zero means inherit GOMEMLIMIT.
	MemoryLimitBytes int64

	// HighWaterMark is the usage fraction below which a pause lifts.
	HighWaterMark float64

	// CriticalWaterMark is the usage fraction at which work pauses.
	CriticalWaterMark float64

	// CheckInterval is the sampling period.
	CheckInterval time.Duration
}

// DefaultConfig pauses at 85% of the limit, resumes below 70%, and samples
// every five seconds.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and gates memory-hungry work. Workers call
// WaitIfPaused before each unit of work and block there while usage sits
// above the critical watermark.
type Monitor struct {
	config Config
	limit  int64
	done   chan struct{}

	mu       sync.RWMutex
	alloc    uint64
	paused   bool
	resumeCh chan struct{}
}

// resolveLimit falls back to GOMEMLIMIT when no explicit limit is given.
// Passing a negative value queries the runtime limit without changing it.
func resolveLimit(explicit int64) int64 {
	if explicit != 0 {
		return explicit
	}
	if inherited := debug.SetMemoryLimit(-1); inherited > 0 && inherited < 1<<62 {
		logging.Info("Memory monitor inheriting GOMEMLIMIT: %s", formatBytes(inherited))
		return inherited
	}
	return 0
}

// NewMonitor builds a monitor for config. With no explicit limit it inherits
// GOMEMLIMIT; with neither, backpressure is disabled and WaitIfPaused never
// blocks.
func NewMonitor(config Config) *Monitor {
	limit := resolveLimit(config.MemoryLimitBytes)
	if limit == 0 {
		logging.Warn("No heap limit configured, thumbnail backpressure disabled")
	}

	return &Monitor{
		config:   config,
		limit:    limit,
		done:     make(chan struct{}),
		resumeCh: make(chan struct{}),
	}
}

// Start launches the sampling loop. A monitor without a limit stays idle.
func (m *Monitor) Start() {
	if m.limit <= 0 {
		return
	}
	go m.run()
}

// Stop ends sampling and releases every goroutine blocked in WaitIfPaused.
func (m *Monitor) Stop() {
	close(m.done)
}

func (m *Monitor) run() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// sample reads the allocator and crosses the watermarks in either direction.
// Pausing kicks the garbage collector once; resuming closes resumeCh so all
// blocked waiters wake together.
func (m *Monitor) sample() {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	usage := float64(stats.Alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.alloc = stats.Alloc

	switch {
	case !m.paused && usage >= m.config.CriticalWaterMark:
		logging.Warn("Heap at %.1f%% of limit, pausing thumbnail work", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.HighWaterMark:
		logging.Info("Heap back to %.1f%% of limit, resuming", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumeCh)
		m.resumeCh = make(chan struct{})
	}
}

// WaitIfPaused blocks while the monitor is paused. It reports false only
// when the monitor stopped before work may continue.
func (m *Monitor) WaitIfPaused() bool {
	gate := m.pauseGate()
	if gate == nil {
		return true
	}

	select {
	case <-m.done:
		return false
	case <-gate:
		return true
	}
}

// pauseGate returns the channel a paused caller should block on, nil when
// work may proceed immediately. The channel is the one sample closes on the
// next resume transition.
func (m *Monitor) pauseGate() <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.paused {
		return nil
	}
	return m.resumeCh
}

// Paused reports whether the monitor currently gates work.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns heap usage as a fraction of the limit, zero when no limit
// is configured.
func (m *Monitor) Usage() float64 {
	m.mu.RLock()
	alloc := m.alloc
	m.mu.RUnlock()

	if m.limit == 0 {
		return 0
	}
	return float64(alloc) / float64(m.limit)
}
