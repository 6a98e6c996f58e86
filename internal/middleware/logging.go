package middleware

import (
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LoggingConfig controls which requests reach the access log.
type LoggingConfig struct {
	// SkipPaths suppresses logging for any path under these prefixes.
	SkipPaths []string

	// SkipExtensions suppresses static assets by file extension when
	// LogStaticFiles is off.
	SkipExtensions []string

	LogStaticFiles  bool
	LogHealthChecks bool
}

// DefaultLoggingConfig logs API traffic and health checks but keeps static
// asset noise out of the log.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipExtensions:  []string{".css", ".js", ".ico", ".png", ".svg"},
		LogHealthChecks: true,
	}
}

// probePath reports whether path belongs to a health or readiness endpoint.
func probePath(path string) bool {
	switch path {
	case "/health", "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}

// skip reports whether path is excluded from the access log.
func (c LoggingConfig) skip(path string) bool {
	for _, prefix := range c.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	if !c.LogHealthChecks && probePath(path) {
		return true
	}

	if !c.LogStaticFiles {
		lower := strings.ToLower(path)
		for _, ext := range c.SkipExtensions {
			if strings.HasSuffix(lower, ext) {
				return true
			}
		}
	}

	return false
}

// Logger returns access-log middleware in W3C Extended Log Format. The
// directive header goes out once, before the first logged request.
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	w3c := &w3cLog{software: "TextureIndex/1.0"}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			begun := time.Now()
			rec := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			w3c.logRequest(r, rec, time.Since(begun))
		})
	}
}

// responseWriter captures the status and body size for the log line.
type responseWriter struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(status int) {
	if rw.wroteHeader {
		return
	}
	rw.status = status
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Write(p []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(p)
	rw.written += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

type w3cLog struct {
	software string
	once     sync.Once
}

func (l *w3cLog) directives() {
	log.Printf("#Software: %s", l.software)
	log.Println("#Version: 1.0")
	log.Println("#Fields: date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(Content-Encoding) cs(User-Agent) cs(Referer)")
}

// logRequest writes one W3C log line. Every user-supplied value passes
// through sanitizeLogField first, so a crafted path or header cannot forge
// extra lines or smuggle terminal escapes.
func (l *w3cLog) logRequest(r *http.Request, rw *responseWriter, elapsed time.Duration) {
	l.once.Do(l.directives)

	userAgent := "-"
	if ua := sanitizeLogField(r.Header.Get("User-Agent")); ua != "" {
		userAgent = quoteW3C(ua)
	}

	// Fields: date and time come first, joined by the same separator as
	// the rest of the line
	log.Println(strings.Join([]string{
		time.Now().UTC().Format("2006-01-02 15:04:05"),
		sanitizeLogField(clientIP(r)),
		sanitizeLogField(r.Method),
		sanitizeLogField(r.URL.Path),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		strconv.Itoa(rw.status),
		strconv.FormatInt(rw.written, 10),
		strconv.FormatInt(elapsed.Milliseconds(), 10),
		orDash(rw.Header().Get("Content-Encoding")),
		userAgent,
		orDash(sanitizeLogField(r.Header.Get("Referer"))),
	}, " "))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField folds newlines to spaces and drops the remaining control
// characters. Tabs survive; they are harmless in a space-delimited line.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}

// clientIP prefers proxy headers over the socket address since the server
// normally sits behind an ingress.
func clientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		// First hop is the original client
		first, _, _ := strings.Cut(v, ",")
		return strings.TrimSpace(first)
	}

	if v := r.Header.Get("X-Real-IP"); v != "" {
		return v
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// quoteW3C wraps values containing spaces or quotes per the W3C format,
// doubling embedded quotes.
func quoteW3C(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
