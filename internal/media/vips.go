package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"sync/atomic"

	"texture-index/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

// Quality for the intermediate JPEG vips hands back to the Go side. High
// enough that the final thumbnail encode is the only lossy step that shows.
const vipsExportQuality = 95

var errVipsDown = errors.New("libvips not available")

var (
	vipsMu sync.Mutex
	vipsUp bool // guarded by vipsMu, true between Startup and Shutdown

	// Lock-free availability check for the decode hot path.
	vipsReady atomic.Bool
)

// vipsLogThresholds maps our log level to the vips level passed to
// LoggingSettings and the minimum vips level our handler forwards.
func vipsLogThresholds(appLevel logging.LogLevel) (configLevel, forwardLevel vips.LogLevel) {
	switch appLevel {
	case logging.LevelDebug:
		return vips.LogLevelInfo, vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning, vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError, vips.LogLevelError
	case logging.LevelError:
		return vips.LogLevelCritical, vips.LogLevelCritical
	default:
		return vips.LogLevelWarning, vips.LogLevelError
	}
}

// forwardVipsLog routes vips messages into our logger. vips severity grows
// as the numeric level shrinks.
func forwardVipsLog(min vips.LogLevel) vips.LoggingHandlerFunction {
	return func(domain string, level vips.LogLevel, msg string) {
		if level > min {
			return
		}
		switch {
		case level <= vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case level <= vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}
}

// Thumbnail work is already bounded by the generator's semaphore, so vips
// itself runs single threaded with a small operation cache.
func vipsConfig() *vips.Config {
	return &vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 << 20,
		MaxCacheSize:     100,
	}
}

// InitVips starts libvips once. Callers treat failure as non-fatal and fall
// back to the pure Go decoders.
func InitVips() error {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	if vipsUp {
		return nil
	}

	// Logging must be wired before Startup or early messages bypass it.
	configLevel, forwardLevel := vipsLogThresholds(logging.GetLevel())
	vips.LoggingSettings(forwardVipsLog(forwardLevel), configLevel)

	vips.Startup(vipsConfig())

	vipsUp = true
	vipsReady.Store(true)
	logging.Info("libvips %s ready", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources. Safe when InitVips never ran.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	if !vipsUp {
		return
	}

	vipsReady.Store(false)
	vips.Shutdown()
	vipsUp = false
	logging.Info("libvips stopped")
}

// IsVipsAvailable reports whether vips decoding is currently usable.
func IsVipsAvailable() bool {
	return vipsReady.Load()
}

// LoadImageWithVips decodes path shrunk toward the target box. Shrinking
// during decode keeps peak memory far below decode-then-resize for the
// multi-thousand-pixel atlas sheets that show up in texture packs.
func LoadImageWithVips(path string, targetWidth, targetHeight int) (image.Image, error) {
	if !vipsReady.Load() {
		return nil, errVipsDown
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	logging.Debug("vips decoding %s, %dx%d toward %dx%d",
		filepath.Base(path), ref.Width(), ref.Height(), targetWidth, targetHeight)

	if err := ref.Thumbnail(targetWidth, targetHeight, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips shrink: %w", err)
	}

	// Round-trip through JPEG so every decode path hands callers the same
	// image.Image surface.
	encoded, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        vipsExportQuality,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(encoded), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("re-decode of vips output: %w", err)
	}
	return img, nil
}
