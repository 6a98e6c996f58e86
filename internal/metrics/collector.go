package metrics

import (
	"context"
	"time"

	"texture-index/internal/logging"
	"texture-index/internal/texture"
)

// Budget for one stats query; a refresh that takes longer is dropped.
const statsTimeout = 10 * time.Second

// StatsProvider supplies current index statistics. The texture repository
// satisfies this directly.
type StatsProvider interface {
	Stats(ctx context.Context) (*texture.Stats, error)
}

// Collector refreshes the library gauges and any registered updater
// functions on a fixed interval.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	updaters []func()
	done     chan struct{}
}

// NewCollector builds a collector around the given stats source.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// AddUpdater registers a function run on every collection cycle. Must be
// called before Start.
func (c *Collector) AddUpdater(fn func()) {
	c.updaters = append(c.updaters, fn)
}

// Start launches the collection loop in its own goroutine.
func (c *Collector) Start() {
	go c.run()
}

// Stop ends the collection loop. Safe to call once.
func (c *Collector) Stop() {
	close(c.done)
}

func (c *Collector) run() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

// collect refreshes the gauges, then runs the updaters. Updaters run even
// when the stats query fails so database and cache gauges stay current.
func (c *Collector) collect() {
	if c.provider != nil {
		c.refreshLibraryGauges()
	}
	for _, fn := range c.updaters {
		fn()
	}
}

func (c *Collector) refreshLibraryGauges() {
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	stats, err := c.provider.Stats(ctx)
	if err != nil {
		logging.Error("Library stats refresh failed: %v", err)
		return
	}

	TexturesTotal.Set(float64(stats.TotalTextures))
	for category, count := range stats.ByCategory {
		TexturesByCategory.WithLabelValues(category).Set(float64(count))
	}
	for format, count := range stats.ByFormat {
		TexturesByFormat.WithLabelValues(format).Set(float64(count))
	}
	logging.Debug("Library gauges refreshed: %d textures, %d categories, %d formats",
		stats.TotalTextures, len(stats.ByCategory), len(stats.ByFormat))
}
