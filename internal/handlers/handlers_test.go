package handlers

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"texture-index/internal/indexer"
	"texture-index/internal/media"
	"texture-index/internal/startup"
	"texture-index/internal/texture"
)

// =============================================================================
// Mock Repository
// =============================================================================

// mockRepo is an in-memory texture.Repository with per-method error
// injection, so handlers can be tested without SQLite.
type mockRepo struct {
	mu      sync.Mutex
	records map[string]texture.Record

	searchOpts []texture.SearchOptions
	allCalls   int

	getErr    error
	upsertErr error
	searchErr error
	allErr    error
	statsErr  error

	// gate, when non-nil, blocks repository access until closed. Lets
	// tests hold an indexing pass open.
	gate chan struct{}
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[string]texture.Record)}
}

func (m *mockRepo) wait() {
	if m.gate != nil {
		<-m.gate
	}
}

// add seeds a record without going through Upsert bookkeeping.
func (m *mockRepo) add(rec texture.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Path] = rec
}

func (m *mockRepo) Upsert(_ context.Context, rec *texture.Record) error {
	m.wait()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Path] = *rec
	return nil
}

func (m *mockRepo) GetByPath(_ context.Context, path string) (*texture.Record, error) {
	m.wait()
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[path]
	if !ok {
		return nil, texture.ErrNotFound
	}
	return &rec, nil
}

func (m *mockRepo) Search(_ context.Context, opts texture.SearchOptions) ([]texture.Record, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchOpts = append(m.searchOpts, opts)

	var out []texture.Record
	for _, rec := range m.records {
		if opts.Filename != "" && !strings.Contains(strings.ToLower(rec.Filename), strings.ToLower(opts.Filename)) {
			continue
		}
		if opts.Category != "" && rec.Category != opts.Category {
			continue
		}
		if opts.Subcategory != "" && rec.Subcategory != opts.Subcategory {
			continue
		}
		if opts.Format != "" && rec.Format != opts.Format {
			continue
		}
		if opts.MinWidth > 0 && rec.Width < opts.MinWidth {
			continue
		}
		if opts.MaxWidth > 0 && rec.Width > opts.MaxWidth {
			continue
		}
		if opts.MinHeight > 0 && rec.Height < opts.MinHeight {
			continue
		}
		if opts.MaxHeight > 0 && rec.Height > opts.MaxHeight {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *mockRepo) All(_ context.Context) ([]texture.Record, error) {
	if m.allErr != nil {
		return nil, m.allErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allCalls++
	out := make([]texture.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *mockRepo) Stats(_ context.Context) (*texture.Stats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &texture.Stats{
		TotalTextures: len(m.records),
		ByCategory:    make(map[string]int),
		ByFormat:      make(map[string]int),
	}
	for _, rec := range m.records {
		stats.ByCategory[rec.Category]++
		stats.ByFormat[rec.Format]++
	}
	return stats, nil
}

func (m *mockRepo) Flush(_ context.Context) error {
	m.wait()
	return nil
}

// lastSearchOpts returns the options of the most recent Search call.
func (m *mockRepo) lastSearchOpts(t *testing.T) texture.SearchOptions {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.searchOpts) == 0 {
		t.Fatal("Expected at least one Search call")
	}
	return m.searchOpts[len(m.searchOpts)-1]
}

// =============================================================================
// Test Fixtures
// =============================================================================

// newTestHandlers wires real collaborators around the in-memory repository.
// The indexer is not started; tests that need readiness run Index directly.
func newTestHandlers(t *testing.T, thumbsEnabled bool) (*Handlers, *mockRepo, string) {
	t.Helper()

	textureDir := t.TempDir()
	repo := newMockRepo()
	idx := indexer.New(repo, textureDir, time.Hour)
	thumbGen := media.NewThumbnailGenerator(t.TempDir(), thumbsEnabled)

	config := &startup.Config{TextureDir: textureDir}
	return New(repo, idx, thumbGen, config), repo, textureDir
}

// writePNG writes a small valid PNG so file serving and thumbnail
// generation can run against real image data.
func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
}

// makeRecord returns a plausible indexed texture rooted at path.
func makeRecord(path string) texture.Record {
	return texture.Record{
		Path:        path,
		Filename:    filepath.Base(path),
		Category:    "Things",
		Subcategory: "Building",
		FileSize:    2048,
		Width:       256,
		Height:      256,
		Format:      ".png",
		ContentHash: "0123456789abcdef0123456789abcdef",
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
		ModifiedAt:  time.Now().UTC(),
	}
}
