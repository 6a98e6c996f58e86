package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// CompressionConfig controls the gzip middleware.
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize int

	// Level is the gzip level passed to the encoder.
	Level int

	// CompressibleTypes lists the media types eligible for compression.
	CompressibleTypes []string
}

// DefaultCompressionConfig compresses text and JSON from 1KB up. Texture
// payloads (PNG, JPEG) are already compressed and are deliberately absent;
// the win is on search results and the static UI.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/javascript",
			"application/json",
			"image/svg+xml",
			"text/css",
			"text/html",
			"text/javascript",
			"text/plain",
		},
	}
}

// Compression returns middleware that gzips eligible responses for clients
// that advertise support. Encoders are pooled per middleware instance so
// the configured level sticks across reuse.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	if config.Level < gzip.HuffmanOnly || config.Level > gzip.BestCompression {
		config.Level = gzip.DefaultCompression
	}

	pool := &sync.Pool{
		New: func() any {
			zw, _ := gzip.NewWriterLevel(io.Discard, config.Level)
			return zw
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipWriter{
				ResponseWriter: w,
				config:         config,
				pool:           pool,
				status:         http.StatusOK,
				buf:            make([]byte, 0, config.MinSize+1),
			}
			defer gw.Close()

			next.ServeHTTP(gw, r)
		})
	}
}

// gzipWriter defers the compress-or-not decision until either the
// body outgrows MinSize or the handler returns. Until then writes land in
// buf and no headers go out, so Content-Encoding is always accurate.
type gzipWriter struct {
	http.ResponseWriter
	config CompressionConfig
	pool   *sync.Pool

	buf       []byte
	status    int
	committed bool
	zw        *gzip.Writer
}

func (g *gzipWriter) WriteHeader(status int) {
	if !g.committed {
		g.status = status
	}
}

func (g *gzipWriter) Write(p []byte) (int, error) {
	if g.committed {
		if g.zw != nil {
			return g.zw.Write(p)
		}
		return g.ResponseWriter.Write(p)
	}

	g.buf = append(g.buf, p...)
	if len(g.buf) > g.config.MinSize {
		g.commit()
	}
	return len(p), nil
}

// commit picks an encoding, sends headers, and drains the buffer. It runs
// exactly once.
func (g *gzipWriter) commit() {
	if g.committed {
		return
	}
	g.committed = true

	if len(g.buf) >= g.config.MinSize && g.compressible() {
		h := g.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")

		g.zw = g.pool.Get().(*gzip.Writer)
		g.zw.Reset(g.ResponseWriter)
		g.ResponseWriter.WriteHeader(g.status)
		g.zw.Write(g.buf)
	} else {
		g.ResponseWriter.WriteHeader(g.status)
		g.ResponseWriter.Write(g.buf)
	}

	g.buf = nil
}

// compressible matches the response media type against the configured
// list, ignoring charset and other parameters.
func (g *gzipWriter) compressible() bool {
	mediaType, _, _ := strings.Cut(g.Header().Get("Content-Type"), ";")
	return slices.Contains(g.config.CompressibleTypes, strings.ToLower(strings.TrimSpace(mediaType)))
}

// Close flushes whatever is pending and returns the encoder to the pool.
func (g *gzipWriter) Close() error {
	g.commit()

	if g.zw == nil {
		return nil
	}
	err := g.zw.Close()
	g.pool.Put(g.zw)
	g.zw = nil
	return err
}

// Flush implements http.Flusher.
func (g *gzipWriter) Flush() {
	g.commit()

	if g.zw != nil {
		g.zw.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
