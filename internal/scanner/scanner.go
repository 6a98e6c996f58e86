package scanner

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"texture-index/internal/filesystem"
	"texture-index/internal/logging"
	"texture-index/internal/media"
	"texture-index/internal/metrics"
	"texture-index/internal/texture"
)

// hashChunkSize is the read size for content hashing. Hashes are computed
// over fixed 4096-byte chunks so the digest never depends on buffer
// growth heuristics.
const hashChunkSize = 4096

// WalkFunc is invoked once per texture file found under the root. When a
// path cannot be accessed, it is invoked with a nil info and the access
// error; returning nil continues the walk.
type WalkFunc func(path string, info os.FileInfo, err error) error

// Walk traverses root sequentially and invokes fn for every regular file
// whose lowercased extension is an indexed texture format. Hidden files
// and directories (dot-prefixed) are skipped entirely. The walk stops
// early when ctx is cancelled or fn returns an error.
func Walk(ctx context.Context, root string, fn WalkFunc) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("cannot stat texture directory: %w", err)
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			metrics.ScannerPathErrors.Inc()
			return fn(path, nil, err)
		}

		if strings.HasPrefix(info.Name(), ".") && path != root {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		if !texture.IsTexture(strings.ToLower(filepath.Ext(info.Name()))) {
			return nil
		}

		metrics.ScannerFilesDiscovered.Inc()
		return fn(path, info, nil)
	})
	if err != nil {
		return fmt.Errorf("walk error: %w", err)
	}

	return ctx.Err()
}

// BuildRecord extracts the full metadata record for one texture file.
// Extraction failures degrade the record instead of failing it: an
// undecodable image yields (0, 0) dimensions and an unreadable file an
// empty content hash. CreatedAt is set to the current time; callers that
// already hold a record for the path carry the stored value forward.
func BuildRecord(root, path string, info os.FileInfo) *texture.Record {
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		logging.Warn("Cannot relativize %s against %s: %v", path, root, err)
		relPath = info.Name()
	}

	rec := &texture.Record{
		Path:        path,
		Filename:    info.Name(),
		Category:    texture.DeriveCategory(relPath),
		Subcategory: texture.DeriveSubcategory(relPath),
		FileSize:    info.Size(),
		Format:      strings.ToLower(filepath.Ext(info.Name())),
		CreatedAt:   time.Now().UTC(),
		ModifiedAt:  info.ModTime(),
	}

	if dims, err := media.GetImageDimensions(path); err != nil {
		// Expected for formats without a registered decoder (TGA, PSD)
		logging.Debug("Could not probe dimensions for %s: %v", path, err)
		metrics.ScannerProbeFailures.Inc()
	} else {
		rec.Width = dims.Width
		rec.Height = dims.Height
	}

	if hash, err := hashFile(path); err != nil {
		logging.Warn("Could not hash %s: %v", path, err)
		metrics.ScannerHashFailures.Inc()
	} else {
		rec.ContentHash = hash
	}

	return rec
}

// hashFile computes the MD5 digest of the file contents, reading in fixed
// hashChunkSize chunks.
func hashFile(path string) (string, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			logging.Warn("Failed to close %s after hashing: %v", path, closeErr)
		}
	}()

	h := md5.New()
	buf := make([]byte, hashChunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", readErr
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
