package media

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"texture-index/internal/filesystem"
	"texture-index/internal/logging"
	"texture-index/internal/metrics"
	"texture-index/internal/workers"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/singleflight"
)

const (
	// ThumbnailSize is the bounding box thumbnails are fitted into
	ThumbnailSize = 200

	// thumbnailQuality is the JPEG quality for cached thumbnails
	thumbnailQuality = 80

	// maxThumbnailWorkers caps concurrent generation regardless of CPU count
	maxThumbnailWorkers = 8

	// cacheSizeWindow is how long a cache size scan result is reused
	cacheSizeWindow = 2 * time.Minute
)

var errThumbnailsDisabled = errors.New("thumbnails disabled")

// vipsFormats are the texture extensions libvips can decode. TGA and PSD
// always go through the fallback decoders.
var vipsFormats = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
}

// Throttle pauses bulk work under memory pressure. Satisfied by
// *memory.Monitor.
type Throttle interface {
	WaitIfPaused() bool
}

// ThumbnailGenerator produces and caches JPEG thumbnails for texture files.
// Concurrent requests for the same texture are collapsed into a single
// generation, and total concurrent generations are bounded by a worker
// semaphore sized for mixed CPU/IO work.
type ThumbnailGenerator struct {
	cacheDir string
	enabled  bool
	throttle Throttle

	group singleflight.Group
	sem   chan struct{}

	// Cache size scans walk the whole cache dir, so results are reused
	// for a short window.
	sizeMu        sync.Mutex
	sizeCheckedAt time.Time
	cachedSize    int64
	cachedCount   int64
}

func NewThumbnailGenerator(cacheDir string, enabled bool) *ThumbnailGenerator {
	g := &ThumbnailGenerator{
		cacheDir: cacheDir,
		enabled:  enabled,
		sem:      make(chan struct{}, workers.ForMixed(maxThumbnailWorkers)),
	}
	if !enabled {
		logging.Debug("Thumbnails disabled, generator is inert")
		return g
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		logging.Warn("Thumbnail cache dir %s not creatable: %v", cacheDir, err)
	}
	logging.Debug("Thumbnail generator ready: cache %s, %d workers", cacheDir, cap(g.sem))
	return g
}

func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// SetThrottle attaches a memory backpressure signal consulted during bulk
// pre-warming. Call before Warm.
func (t *ThumbnailGenerator) SetThrottle(throttle Throttle) {
	t.throttle = throttle
}

// CachePath maps a texture path to its cache file. Hashing the full path
// flattens the library's directory tree into one cache directory.
func (t *ThumbnailGenerator) CachePath(filePath string) string {
	sum := md5.Sum([]byte(filePath))
	return filepath.Join(t.cacheDir, fmt.Sprintf("%x.jpg", sum))
}

// GetThumbnail returns the JPEG thumbnail bytes for a texture file,
// generating and caching them on first request.
func (t *ThumbnailGenerator) GetThumbnail(filePath string) ([]byte, error) {
	if !t.enabled {
		return nil, errThumbnailsDisabled
	}
	if _, err := filesystem.StatWithRetry(filePath, filesystem.DefaultRetryConfig()); err != nil {
		return nil, fmt.Errorf("source not readable: %w", err)
	}

	cachePath := t.CachePath(filePath)
	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}
	metrics.ThumbnailCacheMisses.Inc()

	// Collapse concurrent requests for the same texture into one generation
	data, err, _ := t.group.Do(cachePath, func() (any, error) {
		// Another request may have finished while we waited
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}

		t.sem <- struct{}{}
		defer func() { <-t.sem }()

		return t.generate(filePath, cachePath)
	})
	if err != nil {
		return nil, err
	}
	return data.([]byte), nil
}

func (t *ThumbnailGenerator) generate(filePath, cachePath string) ([]byte, error) {
	logging.Debug("Rendering thumbnail for %s", filePath)
	start := time.Now()

	img, err := t.loadTexture(filePath)
	if err != nil {
		metrics.ThumbnailGenerations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}

	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		metrics.ThumbnailGenerations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	// A failed cache write costs a regeneration later, nothing more.
	if err := os.WriteFile(cachePath, buf.Bytes(), 0o644); err != nil {
		logging.Warn("Could not persist thumbnail for %s: %v", filePath, err)
	}

	metrics.ThumbnailGenerations.WithLabelValues("ok").Inc()
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	return buf.Bytes(), nil
}

// loadTexture decodes a texture using the fastest path available. Large art
// sources go through vips decode-time shrinking when the format allows it.
func (t *ThumbnailGenerator) loadTexture(filePath string) (image.Image, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	if IsVipsAvailable() && vipsFormats[ext] {
		img, err := LoadImageWithVips(filePath, ThumbnailSize, ThumbnailSize)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v, trying fallback", filePath, err)
	}

	if logging.IsDebugEnabled() {
		format, _ := sniffFormat(filePath)
		logging.Debug("Go decoder path for %s (header says %q)", filePath, format)
	}

	img, err := LoadImageConstrained(filePath, MaxImageDimension, MaxImagePixels)
	if err != nil {
		return nil, fmt.Errorf("no decoder could read %s: %w", filePath, err)
	}
	return img, nil
}

// Warm generates thumbnails for the given texture paths ahead of demand.
// Failures are counted but do not stop the batch.
func (t *ThumbnailGenerator) Warm(ctx context.Context, paths []string) {
	if !t.enabled || len(paths) == 0 {
		return
	}

	numWorkers := workers.ForMixed(maxThumbnailWorkers)
	logging.Info("Pre-warming %d thumbnails with %d workers", len(paths), numWorkers)
	start := time.Now()

	jobs := make(chan string)
	var wg sync.WaitGroup
	var generated, failed atomic.Int64

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				// Blocks while memory is critical, skips on monitor shutdown
				if t.throttle != nil && !t.throttle.WaitIfPaused() {
					continue
				}
				if _, err := t.GetThumbnail(path); err != nil {
					logging.Debug("Pre-warm failed for %s: %v", path, err)
					metrics.ThumbnailPrewarmFiles.WithLabelValues("error").Inc()
					failed.Add(1)
				} else {
					metrics.ThumbnailPrewarmFiles.WithLabelValues("ok").Inc()
					generated.Add(1)
				}
			}
		}()
	}

	for _, path := range paths {
		select {
		case <-ctx.Done():
			logging.Warn("Thumbnail pre-warm cancelled: %v", ctx.Err())
			close(jobs)
			wg.Wait()
			return
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	metrics.ThumbnailPrewarmDuration.Set(elapsed.Seconds())
	logging.Info("Thumbnail pre-warm complete: %d generated, %d failed in %s",
		generated.Load(), failed.Load(), elapsed.Round(time.Millisecond))
}

// GetCacheSize returns the total size in bytes and the number of cached
// thumbnails. Results are reused for a short window to keep status
// endpoints and metrics collection cheap.
func (t *ThumbnailGenerator) GetCacheSize() (int64, int64, error) {
	if !t.enabled {
		return 0, 0, nil
	}

	t.sizeMu.Lock()
	defer t.sizeMu.Unlock()

	if time.Since(t.sizeCheckedAt) < cacheSizeWindow {
		return t.cachedSize, t.cachedCount, nil
	}

	var size, count int64
	err := filepath.WalkDir(t.cacheDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		count++
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	t.cachedSize = size
	t.cachedCount = count
	t.sizeCheckedAt = time.Now()

	metrics.ThumbnailCacheSize.Set(float64(size))
	metrics.ThumbnailCacheCount.Set(float64(count))

	return size, count, nil
}

// Header magics for the formats worth logging about. TGA has no magic and
// reports unknown.
var headerMagics = []struct {
	prefix []byte
	format string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpeg"},
	{[]byte{0x89, 'P', 'N', 'G'}, "png"},
	{[]byte{'B', 'M'}, "bmp"},
	{[]byte{'8', 'B', 'P', 'S'}, "psd"},
}

// sniffFormat identifies a texture format from its file header.
func sniffFormat(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	header := make([]byte, 8)
	n, err := io.ReadAtLeast(f, header, 2)
	if err != nil {
		return "", err
	}

	for _, m := range headerMagics {
		if bytes.HasPrefix(header[:n], m.prefix) {
			return m.format, nil
		}
	}
	return "unknown", nil
}
