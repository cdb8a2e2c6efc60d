package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware instruments HTTP handlers with request metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK, // Default to 200 if WriteHeader not called
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
	})
}

// normalizePath replaces dynamic path segments (codes, hashes, record ids)
// with placeholders so metric label cardinality stays bounded.
func normalizePath(path string) string {
	switch {
	case path == "/", path == "/health", path == "/metrics",
		path == "/api/upload", path == "/api/files", path == "/api/settings",
		path == "/api/auth/login", path == "/api/auth/logout", path == "/api/auth/check":
		return path

	case strings.HasPrefix(path, "/api/claim/"):
		return "/api/claim/:code"

	case strings.HasPrefix(path, "/api/files/code/"):
		return "/api/files/code/:code"

	case strings.HasPrefix(path, "/api/files/hash/"):
		return "/api/files/hash/:hash"

	case strings.HasPrefix(path, "/api/files/") && strings.HasSuffix(path, "/download"):
		return "/api/files/:id/download"

	case strings.HasPrefix(path, "/api/files/"):
		return "/api/files/:id"

	case strings.HasPrefix(path, "/files/"):
		return "/files/:name"

	default:
		return "/other"
	}
}
