package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"texture-index/internal/logging"
	"texture-index/internal/texture"
)

// GetTexture returns the index record for a single texture identified by
// its path.
func (h *Handlers) GetTexture(w http.ResponseWriter, r *http.Request) {
	requestPath := r.URL.Query().Get("path")
	if requestPath == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	fullPath, ok := h.resolveTexturePath(requestPath)
	if !ok {
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	record, err := h.repo.GetByPath(r.Context(), fullPath)
	if err != nil {
		if errors.Is(err, texture.ErrNotFound) {
			writeJSONError(w, "Texture not found", http.StatusNotFound)
			return
		}
		logging.Error("Texture lookup failed for %s: %v", fullPath, err)
		writeJSONError(w, "Texture lookup failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, record)
}

// GetFile serves the raw texture file from disk.
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	requestPath := r.URL.Query().Get("path")
	if requestPath == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	fullPath, ok := h.resolveTexturePath(requestPath)
	if !ok {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	fileInfo, err := StatWithRetry(fullPath, DefaultNFSRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "File not found", http.StatusNotFound)
		} else {
			logging.Error("Failed to stat file %s: %v", fullPath, err)
			http.Error(w, "Failed to access file", http.StatusInternalServerError)
		}
		return
	}

	if fileInfo.IsDir() {
		http.Error(w, "Path is a directory", http.StatusBadRequest)
		return
	}

	file, err := OpenWithRetry(fullPath, DefaultNFSRetryConfig())
	if err != nil {
		logging.Error("Failed to open file %s: %v", fullPath, err)
		http.Error(w, "Failed to open file", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	// TGA and PSD are not in Go's builtin MIME table, so set the type
	// from the indexed extension map.
	ext := strings.ToLower(filepath.Ext(fullPath))
	w.Header().Set("Content-Type", texture.GetMimeType(ext))
	w.Header().Set("Cache-Control", "public, max-age=3600")

	http.ServeContent(w, r, fileInfo.Name(), fileInfo.ModTime(), file)
}

// GetThumbnail serves a cached JPEG preview of the texture, generating it
// on first request.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	requestPath := r.URL.Query().Get("path")

	logging.Debug("Thumbnail requested: %s", requestPath)

	if requestPath == "" {
		http.Error(w, "Path is required", http.StatusBadRequest)
		return
	}

	fullPath, ok := h.resolveTexturePath(requestPath)
	if !ok {
		logging.Warn("Thumbnail: path outside texture dir: %s", requestPath)
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	fileInfo, err := StatWithRetry(fullPath, DefaultNFSRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			logging.Warn("Thumbnail: file not found: %s", fullPath)
			http.Error(w, "File not found", http.StatusNotFound)
		} else {
			logging.Error("Thumbnail: failed to stat file %s: %v", fullPath, err)
			http.Error(w, "Failed to access file", http.StatusInternalServerError)
		}
		return
	}

	if fileInfo.IsDir() {
		http.Error(w, "Cannot generate thumbnail for directory", http.StatusBadRequest)
		return
	}

	if !h.thumbGen.IsEnabled() {
		logging.Warn("Thumbnail: thumbnails disabled, returning 503")
		http.Error(w, "Thumbnails disabled", http.StatusServiceUnavailable)
		return
	}

	ext := strings.ToLower(filepath.Ext(fullPath))
	if !texture.IsTexture(ext) {
		logging.Warn("Thumbnail: unsupported file type for %s", requestPath)
		http.Error(w, "Unsupported file type", http.StatusBadRequest)
		return
	}

	thumb, err := h.thumbGen.GetThumbnail(fullPath)
	if err != nil {
		logging.Error("Thumbnail: generation failed for %s: %v", requestPath, err)
		http.Error(w, fmt.Sprintf("Failed to generate thumbnail: %v", err), http.StatusInternalServerError)
		return
	}

	logging.Debug("Thumbnail: success for %s (%d bytes)", requestPath, len(thumb))

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(thumb)
}

// resolveTexturePath turns a client-supplied path into an absolute path
// under the texture directory. Stored records carry absolute paths, so
// both absolute and texture-dir-relative inputs are accepted.
func (h *Handlers) resolveTexturePath(requestPath string) (string, bool) {
	fullPath := requestPath
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(h.textureDir, fullPath)
	}

	absPath, err := filepath.Abs(fullPath)
	if err != nil || !isSubPath(h.textureDir, absPath) {
		return "", false
	}
	return absPath, true
}

// isSubPath reports whether child is inside parent (or equals it).
// Comparison is by path segment, so a sibling like parent+"-old" does
// not match.
func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
