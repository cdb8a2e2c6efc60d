package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/repository"
)

// HealthHandler reports process health plus live file count and storage use.
// Health checks are never cached so probes see the current state.
func HealthHandler(files repository.FileRepository, startTime time.Time, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")

		if r.Method != http.MethodGet {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		current := now()
		totalFiles, storageUsed, err := files.Stats(r.Context(), current.UnixMilli())
		if err != nil {
			slog.Error("health check stats query failed", "error", err)
			sendJSON(w, http.StatusServiceUnavailable, models.HealthResponse{
				Status:        "unhealthy",
				UptimeSeconds: int64(current.Sub(startTime).Seconds()),
			})
			return
		}

		sendJSON(w, http.StatusOK, models.HealthResponse{
			Status:           "healthy",
			UptimeSeconds:    int64(current.Sub(startTime).Seconds()),
			TotalFiles:       totalFiles,
			StorageUsedBytes: storageUsed,
		})
	}
}
