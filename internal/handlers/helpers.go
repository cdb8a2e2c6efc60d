// Package handlers implements the HTTP API. Handlers translate service
// errors into JSON {error, code} responses; internal detail stays in logs.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/airlift/airlift/internal/config"
	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/service"
)

// sendError sends a JSON error response
func sendError(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// sendJSON sends a JSON response with the given status code
func sendJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// sendServiceError maps a service-layer error to its HTTP response.
func sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		sendError(w, err.Error(), "INVALID_INPUT", http.StatusBadRequest)
	case errors.Is(err, service.ErrFileTooLarge):
		sendError(w, err.Error(), "FILE_TOO_LARGE", http.StatusRequestEntityTooLarge)
	case errors.Is(err, service.ErrQuotaExceeded):
		sendError(w, err.Error(), "QUOTA_EXCEEDED", http.StatusInsufficientStorage)
	case errors.Is(err, service.ErrNotFound):
		sendError(w, "File not found", "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, service.ErrExpired):
		sendError(w, "File has expired", "EXPIRED", http.StatusGone)
	case errors.Is(err, service.ErrConfiguration):
		sendError(w, "Storage is not configured", "STORAGE_NOT_CONFIGURED", http.StatusInternalServerError)
	default:
		slog.Error("request failed", "error", err)
		sendError(w, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

// buildDownloadURL constructs the full claim URL for a retrieval code.
// Respects PUBLIC_URL config and reverse proxy headers.
func buildDownloadURL(r *http.Request, cfg *config.Config, code string) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/") + "/api/claim/" + code
	}
	return getScheme(r) + "://" + getHost(r) + "/api/claim/" + code
}

// getScheme returns the scheme (http/https) respecting reverse proxy headers
func getScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// getHost returns the host respecting reverse proxy headers
func getHost(r *http.Request) string {
	if host := r.Header.Get("X-Forwarded-Host"); host != "" {
		return host
	}
	return r.Host
}

// getClientIP returns the client IP, preferring forwarded headers.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
