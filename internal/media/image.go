package media

import (
	"fmt"
	"image"
	"math"

	"texture-index/internal/filesystem"
	"texture-index/internal/logging"

	// Decoders for the texture formats Go can read. TGA and PSD have no
	// decoder; dimension probes for those fail and callers fall back to
	// zero dimensions.
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

const (
	// MaxImageDimension is the largest width or height decoded at full
	// size. Anything bigger gets resized down after decode.
	MaxImageDimension = 4096

	// MaxImagePixels caps total decoded pixels. Atlas sheets can be
	// enormous; 20MP already needs about 80MB as RGBA.
	MaxImagePixels = 20_000_000
)

// ImageDimensions holds image width and height.
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions reads only the image header to report its size.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	return &ImageDimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// fitWithin shrinks width x height to honor both a per-side cap and a total
// pixel budget, preserving aspect ratio. Returns the input unchanged when it
// already fits.
func fitWithin(width, height, maxDim, maxPixels int) (int, int) {
	w, h := width, height

	if longest := max(w, h); longest > maxDim {
		if w >= h {
			w, h = maxDim, h*maxDim/longest
		} else {
			w, h = w*maxDim/longest, maxDim
		}
	}

	if w*h > maxPixels {
		// Both axes shrink, so the area scales by the square.
		scale := math.Sqrt(float64(maxPixels) / float64(w*h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}
	return w, h
}

// LoadImageConstrained opens path with the decoded size capped. The caps
// keep a hostile or merely huge file from ballooning resident memory.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dims, err := GetImageDimensions(path)
	if err != nil {
		// No header to probe. Let the decoder try the whole file.
		logging.Debug("Dimension probe failed for %s: %v", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	width, height := fitWithin(dims.Width, dims.Height, maxDimension, maxPixels)
	if width == dims.Width && height == dims.Height {
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	logging.Info("Downscaling %s from %dx%d to %dx%d", path, dims.Width, dims.Height, width, height)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}
