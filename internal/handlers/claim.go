package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/airlift/airlift/internal/metrics"
	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/service"
	"github.com/airlift/airlift/internal/utils"
)

// ClaimHandler serves file downloads by retrieval code. Local files are
// streamed with a Content-Disposition carrying the original name; object
// storage files redirect to their resolved URL. Either way the download
// counter is incremented before the bytes leave.
func ClaimHandler(downloader *service.Downloader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		code := utils.NormalizeCode(strings.TrimPrefix(r.URL.Path, "/api/claim/"))
		if !utils.ValidCode(code) {
			sendError(w, "Invalid retrieval code", "INVALID_CODE", http.StatusBadRequest)
			return
		}

		record, err := downloader.Resolve(r.Context(), code)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotFound):
				metrics.DownloadsTotal.WithLabelValues("not_found").Inc()
			case errors.Is(err, service.ErrExpired):
				metrics.DownloadsTotal.WithLabelValues("expired").Inc()
				slog.Warn("claim of expired file", "code", code, "client_ip", getClientIP(r))
			default:
				metrics.DownloadsTotal.WithLabelValues("failure").Inc()
			}
			sendServiceError(w, err)
			return
		}

		if _, err := downloader.RecordDownload(r.Context(), record.ID); err != nil {
			slog.Error("failed to record download", "id", record.ID, "error", err)
			// The file is still served; accounting is not worth a failed
			// download from the user's perspective.
		}

		if record.StorageType == models.StorageOSS {
			metrics.DownloadsTotal.WithLabelValues("success").Inc()
			http.Redirect(w, r, record.Data, http.StatusFound)
			return
		}

		body, err := downloader.Open(r.Context(), record)
		if err != nil {
			metrics.DownloadsTotal.WithLabelValues("failure").Inc()
			slog.Error("failed to open stored file", "id", record.ID, "path", record.StoragePath, "error", err)
			sendError(w, "File data unavailable", "STORAGE_ERROR", http.StatusInternalServerError)
			return
		}
		defer body.Close()

		contentType := record.Type
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(record.Size, 10))
		w.Header().Set("Content-Disposition", contentDisposition(record.Name))
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if _, err := io.Copy(w, body); err != nil {
			// Headers are already sent; nothing to do but log.
			slog.Warn("download stream interrupted", "id", record.ID, "error", err)
			return
		}

		metrics.DownloadsTotal.WithLabelValues("success").Inc()
		slog.Info("file downloaded",
			"id", record.ID,
			"code", record.Code,
			"name", record.Name,
			"client_ip", getClientIP(r),
		)
	}
}

// contentDisposition builds an attachment header that survives non-ASCII
// filenames via the RFC 5987 filename* parameter.
func contentDisposition(name string) string {
	fallback := strings.Map(func(c rune) rune {
		if c < 0x20 || c > 0x7e || c == '"' || c == '\\' {
			return '_'
		}
		return c
	}, name)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(name))
}
