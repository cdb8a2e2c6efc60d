package handlers

import (
	"log/slog"
	"net/http"

	"github.com/airlift/airlift/internal/config"
	"github.com/airlift/airlift/internal/metrics"
	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/service"
)

// UploadHandler handles multipart file upload requests
func UploadHandler(uploader *service.Uploader, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		// Hard transport cap; the per-file settings limit is enforced again
		// inside the upload pipeline against the bytes actually received.
		maxBody := cfg.MaxRequestBodyMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)

		file, header, err := r.FormFile("file")
		if err != nil {
			sendError(w, "No file provided", "NO_FILE", http.StatusBadRequest)
			return
		}
		defer file.Close()

		record, deduped, err := uploader.Upload(r.Context(), file, header.Size, header.Filename, header.Header.Get("Content-Type"))
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("failure").Inc()
			slog.Warn("upload rejected",
				"filename", header.Filename,
				"size", header.Size,
				"client_ip", getClientIP(r),
				"error", err,
			)
			sendServiceError(w, err)
			return
		}

		if deduped {
			metrics.UploadsTotal.WithLabelValues("deduped").Inc()
		} else {
			metrics.UploadsTotal.WithLabelValues("success").Inc()
			metrics.UploadSizeBytes.Observe(float64(record.Size))
		}

		sendJSON(w, http.StatusCreated, models.UploadResponse{
			ID:         record.ID,
			Code:       record.Code,
			URL:        buildDownloadURL(r, cfg, record.Code),
			Size:       record.Size,
			Hash:       record.Hash,
			ExpireDate: record.ExpireDate,
		})
	}
}
