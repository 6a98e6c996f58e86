package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"texture-index/internal/logging"
	"texture-index/internal/metrics"
	"texture-index/internal/scanner"
	"texture-index/internal/texture"
)

const (
	// flushEvery bounds how many processed files sit between commits
	flushEvery = 100

	// minRecordsForReady is the record count at which the index can
	// serve traffic before the first pass completes
	minRecordsForReady = 100

	// flushDelay yields after each commit so queries interleave with
	// a long scan
	flushDelay = 10 * time.Millisecond

	defaultPollInterval = 30 * time.Second
)

// Indexer keeps the texture index in sync with the directory tree.
type Indexer struct {
	repo       texture.Repository
	textureDir string

	indexInterval time.Duration
	pollInterval  time.Duration
	pollChanges   bool

	startedAt time.Time
	done      chan struct{}

	mu  sync.Mutex
	run runState

	counts   runCounters
	progress atomic.Value // last published IndexProgress

	// Invoked after each completed pass
	onIndexComplete func()

	treeMu   sync.RWMutex
	lastTree treeState
}

// runState tracks the pass lifecycle under Indexer.mu.
type runState struct {
	indexing     bool
	firstDone    bool
	warm         bool
	firstErr     error
	lastFinished time.Time
}

// runCounters accumulates per-pass tallies that readers sample mid-run.
type runCounters struct {
	processed atomic.Int64
	indexed   atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	current   atomic.Value // path under scan
}

func (c *runCounters) reset() {
	c.processed.Store(0)
	c.indexed.Store(0)
	c.skipped.Store(0)
	c.failed.Store(0)
	c.current.Store("")
}

// IndexProgress tracks the current indexing progress.
type IndexProgress struct {
	FilesProcessed int64     `json:"filesProcessed"`
	FilesIndexed   int64     `json:"filesIndexed"`
	FilesSkipped   int64     `json:"filesSkipped"`
	FilesFailed    int64     `json:"filesFailed,omitempty"`
	CurrentPath    string    `json:"currentPath,omitempty"`
	IsIndexing     bool      `json:"isIndexing"`
	StartedAt      time.Time `json:"startedAt,omitempty"`
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool           `json:"ready"`
	Indexing          bool           `json:"indexing"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            string         `json:"uptime"`
	LastIndexed       time.Time      `json:"lastIndexed,omitempty"`
	InitialIndexError string         `json:"initialIndexError,omitempty"`
	TexturesIndexed   int64          `json:"texturesIndexed"`
	TexturesSkipped   int64          `json:"texturesSkipped"`
	IndexProgress     *IndexProgress `json:"indexProgress,omitempty"`
}

// New creates an Indexer over textureDir backed by repo, re-indexing
// every indexInterval. Change polling is on by default.
func New(repo texture.Repository, textureDir string, indexInterval time.Duration) *Indexer {
	idx := &Indexer{
		repo:          repo,
		textureDir:    textureDir,
		indexInterval: indexInterval,
		pollInterval:  defaultPollInterval,
		pollChanges:   true,
		startedAt:     time.Now(),
		done:          make(chan struct{}),
	}
	idx.counts.current.Store("")
	idx.progress.Store(IndexProgress{})
	return idx
}

// SetPollInterval overrides how often change detection runs. Must be
// called before Start.
func (idx *Indexer) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		idx.pollInterval = interval
	}
}

// SetChangePolling turns polling-based change detection on or off. Must
// be called before Start.
func (idx *Indexer) SetChangePolling(enabled bool) {
	idx.pollChanges = enabled
}

// SetOnIndexComplete registers a callback invoked after every completed
// pass. Must be set before the first pass starts.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Start kicks off the initial pass in the background and the timers for
// periodic re-indexing and change polling.
func (idx *Indexer) Start() error {
	idx.adoptWarmIndex()

	go func() {
		logging.Info("Building initial index in the background")
		if err := idx.Index(context.Background()); err != nil {
			logging.Error("Initial index failed: %v", err)
			idx.mu.Lock()
			idx.run.firstErr = err
			idx.mu.Unlock()
		}
	}()

	go idx.loop()
	return nil
}

// adoptWarmIndex marks the service ready right away when a prior run left
// enough records behind, so a restart does not fail health checks while
// the first full pass runs.
func (idx *Indexer) adoptWarmIndex() {
	stats, err := idx.repo.Stats(context.Background())
	if err != nil || stats.TotalTextures < minRecordsForReady {
		return
	}
	idx.mu.Lock()
	idx.run.warm = true
	idx.mu.Unlock()
	logging.Info("Serving %d textures from the existing index while re-scanning", stats.TotalTextures)
}

// Stop ends background indexing. A pass in flight notices on its next
// file and winds down.
func (idx *Indexer) Stop() {
	close(idx.done)
}

// loop drives periodic re-indexing and, when enabled, change polling
// from one goroutine until Stop.
func (idx *Indexer) loop() {
	reindex := time.NewTicker(idx.indexInterval)
	defer reindex.Stop()

	var poll <-chan time.Time
	if idx.pollChanges {
		ticker := time.NewTicker(idx.pollInterval)
		defer ticker.Stop()
		poll = ticker.C
		logging.Info("Polling for texture changes every %v", idx.pollInterval)
	}

	for {
		select {
		case <-idx.done:
			return
		case <-reindex.C:
			logging.Debug("Scheduled re-index starting")
			if err := idx.Index(context.Background()); err != nil {
				logging.Error("Scheduled re-index failed: %v", err)
			}
		case <-poll:
			idx.pollOnce()
		}
	}
}

// pollOnce runs one change-detection round. Rounds are skipped until the
// index is ready; comparing against a tree state never captured would
// fire on every check.
func (idx *Indexer) pollOnce() {
	if !idx.IsReady() {
		return
	}

	changed, err := idx.detectChanges()
	if err != nil {
		logging.Error("Change detection failed: %v", err)
		return
	}
	if !changed {
		return
	}

	logging.Info("Texture tree changed, re-indexing")
	if err := idx.Index(context.Background()); err != nil {
		logging.Error("Re-index after change failed: %v", err)
	}
}

// Index runs one full sequential pass over the texture tree. Files whose
// stored modification time matches the one on disk are skipped without a
// write. At most one pass runs at a time; a call while one is in flight
// returns nil immediately.
func (idx *Indexer) Index(ctx context.Context) error {
	if !idx.startPass() {
		logging.Info("Index pass already running, not starting another")
		return nil
	}
	defer idx.endPass()

	metrics.IndexerRunsTotal.Inc()
	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	started := time.Now()
	logging.Info("Indexing %s", idx.textureDir)
	idx.counts.reset()
	idx.publish(true, started)

	if err := idx.runPass(ctx, started); err != nil {
		metrics.IndexerErrors.Inc()
		idx.publish(false, started)
		return err
	}

	idx.completeRun(started)
	idx.rememberTree()
	return nil
}

// runPass walks the tree and commits the trailing partial batch.
func (idx *Indexer) runPass(ctx context.Context, started time.Time) error {
	err := scanner.Walk(ctx, idx.textureDir, func(path string, info os.FileInfo, walkErr error) error {
		return idx.visit(ctx, path, info, walkErr, started)
	})
	if err != nil {
		return err
	}

	if err := idx.repo.Flush(ctx); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	return nil
}

// visit handles one file during the walk: skip when unchanged, otherwise
// extract metadata and upsert. Store errors abort the pass; path access
// errors only count against it.
func (idx *Indexer) visit(ctx context.Context, path string, info os.FileInfo, walkErr error, started time.Time) error {
	select {
	case <-idx.done:
		return fs.SkipAll
	default:
	}

	if walkErr != nil {
		logging.Warn("Skipping unreadable path %s: %v", path, walkErr)
		idx.counts.failed.Add(1)
		return nil
	}

	idx.counts.processed.Add(1)
	idx.counts.current.Store(path)

	existing, err := idx.repo.GetByPath(ctx, path)
	if err != nil && !errors.Is(err, texture.ErrNotFound) {
		return fmt.Errorf("lookup %s: %w", path, err)
	}
	if existing != nil && existing.ModifiedAt.Equal(info.ModTime()) {
		idx.counts.skipped.Add(1)
		return idx.checkpoint(ctx, started)
	}

	rec := scanner.BuildRecord(idx.textureDir, path, info)
	if existing != nil && !existing.CreatedAt.IsZero() {
		// First-seen time survives re-indexing
		rec.CreatedAt = existing.CreatedAt
	}
	if err := idx.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("upsert %s: %w", path, err)
	}

	idx.counts.indexed.Add(1)
	return idx.checkpoint(ctx, started)
}

// checkpoint commits the write queue every flushEvery processed files.
// Skips count toward the cadence, so commits track scan progress rather
// than write volume.
func (idx *Indexer) checkpoint(ctx context.Context, started time.Time) error {
	n := idx.counts.processed.Load()
	if n%flushEvery != 0 {
		return nil
	}

	if err := idx.repo.Flush(ctx); err != nil {
		return fmt.Errorf("flush at %d files: %w", n, err)
	}
	idx.publish(true, started)
	time.Sleep(flushDelay)

	if n%5000 == 0 {
		logging.Info("Processed %d textures (%d indexed, %d skipped)...",
			n, idx.counts.indexed.Load(), idx.counts.skipped.Load())
	}
	return nil
}

// startPass marks a pass as running, refusing when one already is.
func (idx *Indexer) startPass() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.run.indexing {
		return false
	}
	idx.run.indexing = true
	return true
}

// endPass clears the running flag. The first pass, completed or failed,
// also marks the index usable.
func (idx *Indexer) endPass() {
	idx.mu.Lock()
	idx.run.indexing = false
	idx.run.firstDone = true
	idx.mu.Unlock()
}

// completeRun records the finish time, publishes the final tallies, and
// fires the completion callback.
func (idx *Indexer) completeRun(started time.Time) {
	idx.mu.Lock()
	idx.run.lastFinished = time.Now()
	idx.mu.Unlock()

	idx.publish(false, started)

	indexed := idx.counts.indexed.Load()
	skipped := idx.counts.skipped.Load()
	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(time.Since(started).Seconds())
	metrics.IndexerFilesProcessed.Add(float64(idx.counts.processed.Load()))
	metrics.IndexerFilesIndexed.Add(float64(indexed))
	metrics.IndexerFilesSkipped.Add(float64(skipped))

	logging.Info("Index complete: %d indexed, %d skipped, %d failed in %v",
		indexed, skipped, idx.counts.failed.Load(), time.Since(started).Round(time.Millisecond))

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
}

// publish stores a progress snapshot built from the live counters.
func (idx *Indexer) publish(active bool, started time.Time) {
	p := IndexProgress{
		FilesProcessed: idx.counts.processed.Load(),
		FilesIndexed:   idx.counts.indexed.Load(),
		FilesSkipped:   idx.counts.skipped.Load(),
		FilesFailed:    idx.counts.failed.Load(),
		IsIndexing:     active,
	}
	if active {
		p.StartedAt = started
	}
	idx.progress.Store(p)
}

// GetProgress returns the latest progress snapshot. While a pass runs,
// the path currently under scan is overlaid so callers see movement
// between commits.
func (idx *Indexer) GetProgress() IndexProgress {
	p, _ := idx.progress.Load().(IndexProgress)
	if p.IsIndexing {
		if path, ok := idx.counts.current.Load().(string); ok {
			p.CurrentPath = path
		}
	}
	return p
}

// IsReady reports whether the service can serve traffic: a completed
// first pass, a warm-started store, or enough files processed mid-pass.
func (idx *Indexer) IsReady() bool {
	if idx.counts.processed.Load() >= minRecordsForReady {
		return true
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.run.firstDone || idx.run.warm
}

// IsIndexing reports whether a pass is in flight.
func (idx *Indexer) IsIndexing() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.run.indexing
}

// LastIndexTime returns when the most recent pass finished, zero before
// the first one has.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.run.lastFinished
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.mu.Lock()
	run := idx.run
	idx.mu.Unlock()

	status := HealthStatus{
		Ready:           run.firstDone || run.warm || idx.counts.processed.Load() >= minRecordsForReady,
		Indexing:        run.indexing,
		StartTime:       idx.startedAt,
		Uptime:          time.Since(idx.startedAt).String(),
		LastIndexed:     run.lastFinished,
		TexturesIndexed: idx.counts.indexed.Load(),
		TexturesSkipped: idx.counts.skipped.Load(),
	}
	if run.firstErr != nil {
		status.InitialIndexError = run.firstErr.Error()
	}
	if run.indexing {
		progress := idx.GetProgress()
		status.IndexProgress = &progress
	}
	return status
}

// TriggerIndex starts a pass in the background, a no-op when one is
// already running.
func (idx *Indexer) TriggerIndex() {
	go func() {
		if err := idx.Index(context.Background()); err != nil {
			logging.Error("Triggered re-index failed: %v", err)
		}
	}()
}

// detectChanges compares a fresh tree fingerprint against the one
// captured after the last pass.
func (idx *Indexer) detectChanges() (bool, error) {
	begun := time.Now()
	defer func() {
		metrics.IndexerPollDuration.Observe(time.Since(begun).Seconds())
		metrics.IndexerPollChecksTotal.Inc()
	}()

	cur, err := scanTree(idx.textureDir)
	if err != nil {
		return false, err
	}

	idx.treeMu.RLock()
	prev := idx.lastTree
	idx.treeMu.RUnlock()

	reason := cur.changedSince(prev)
	if reason == "" {
		return false, nil
	}

	logging.Debug("Texture tree changed: %s", reason)
	metrics.IndexerPollChangesDetected.Inc()
	return true, nil
}

// rememberTree captures the fingerprint that change detection compares
// against.
func (idx *Indexer) rememberTree() {
	cur, err := scanTree(idx.textureDir)
	if err != nil {
		logging.Warn("Tree fingerprint not captured: %v", err)
		return
	}

	idx.treeMu.Lock()
	idx.lastTree = cur
	idx.treeMu.Unlock()

	logging.Debug("Tree fingerprint: %d top-level entries, %d subdirectories",
		cur.topLevel, len(cur.subdirs))
}

// treeState is a cheap fingerprint of the texture tree: the root mtime,
// the count of visible top-level entries, and per-subdirectory mtimes.
// Comparing fingerprints catches adds, removals, and nested writes
// without a recursive walk.
type treeState struct {
	rootMod  time.Time
	topLevel int
	subdirs  map[string]time.Time
}

// scanTree fingerprints the tree rooted at dir. Dotfiles are ignored and
// unreadable subdirectories are left out rather than failing the scan.
func scanTree(dir string) (treeState, error) {
	root, err := os.Stat(dir)
	if err != nil {
		return treeState{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return treeState{}, fmt.Errorf("read %s: %w", dir, err)
	}

	state := treeState{rootMod: root.ModTime(), subdirs: make(map[string]time.Time)}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		state.topLevel++
		if !entry.IsDir() {
			continue
		}
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil {
			state.subdirs[name] = info.ModTime()
		}
	}
	return state, nil
}

// changedSince names what differs between cur and prev, or returns ""
// when nothing does. Directory mtimes move only when a direct child
// changes, so this catches writes in the top two levels; deeper ones
// wait for the periodic re-index.
func (cur treeState) changedSince(prev treeState) string {
	if cur.rootMod.After(prev.rootMod) {
		return "root modified"
	}
	if cur.topLevel != prev.topLevel {
		return fmt.Sprintf("top-level entries %d -> %d", prev.topLevel, cur.topLevel)
	}
	for name, mod := range cur.subdirs {
		last, seen := prev.subdirs[name]
		switch {
		case !seen:
			return "new subdirectory " + name
		case mod.After(last):
			return "subdirectory " + name + " modified"
		}
	}
	return ""
}
