package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/airlift/airlift/internal/auth"
	"github.com/airlift/airlift/internal/repository"
	"github.com/airlift/airlift/internal/service"
	"github.com/airlift/airlift/internal/utils"
)

// ListFilesHandler returns all file records, newest first. Admin only; the
// route is wrapped with auth.RequireAdmin in main.
func ListFilesHandler(files repository.FileRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		records, err := files.GetAll(r.Context())
		if err != nil {
			slog.Error("failed to list files", "error", err)
			sendError(w, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
			return
		}
		sendJSON(w, http.StatusOK, records)
	}
}

// FilesHandler routes the /api/files/ subtree:
//
//	GET    /api/files/code/{code}     record, 404, or 410 when expired
//	GET    /api/files/hash/{hash}     record or 404
//	GET    /api/files/{id}            record or 404
//	PATCH  /api/files/{id}/download   increment count, return updated record
//	DELETE /api/files/{id}            admin; delete bytes and record
func FilesHandler(files repository.FileRepository, downloader *service.Downloader, uploader *service.Uploader, authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/files/")
		if rest == "" || strings.Contains(rest, "/../") {
			sendError(w, "Invalid path", "INVALID_PATH", http.StatusBadRequest)
			return
		}

		switch {
		case strings.HasPrefix(rest, "code/"):
			getByCode(w, r, downloader, strings.TrimPrefix(rest, "code/"))

		case strings.HasPrefix(rest, "hash/"):
			getByHash(w, r, files, strings.TrimPrefix(rest, "hash/"))

		case strings.HasSuffix(rest, "/download"):
			recordDownload(w, r, downloader, strings.TrimSuffix(rest, "/download"))

		default:
			switch r.Method {
			case http.MethodGet:
				getByID(w, r, files, rest)
			case http.MethodDelete:
				deleteFile(w, r, uploader, authSvc, rest)
			default:
				sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			}
		}
	}
}

func getByCode(w http.ResponseWriter, r *http.Request, downloader *service.Downloader, code string) {
	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
		return
	}
	if code = utils.NormalizeCode(code); !utils.ValidCode(code) {
		sendError(w, "Invalid retrieval code", "INVALID_CODE", http.StatusBadRequest)
		return
	}

	record, err := downloader.Resolve(r.Context(), code)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, record)
}

func getByHash(w http.ResponseWriter, r *http.Request, files repository.FileRepository, hash string) {
	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
		return
	}

	record, err := files.GetByHash(r.Context(), hash)
	if errors.Is(err, repository.ErrNotFound) {
		sendError(w, "File not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("hash lookup failed", "error", err)
		sendError(w, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, record)
}

func getByID(w http.ResponseWriter, r *http.Request, files repository.FileRepository, id string) {
	record, err := files.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		sendError(w, "File not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("id lookup failed", "error", err)
		sendError(w, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusOK, record)
}

func recordDownload(w http.ResponseWriter, r *http.Request, downloader *service.Downloader, id string) {
	if r.Method != http.MethodPatch {
		sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
		return
	}

	record, err := downloader.RecordDownload(r.Context(), id)
	if err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, record)
}

func deleteFile(w http.ResponseWriter, r *http.Request, uploader *service.Uploader, authSvc *auth.Service, id string) {
	if err := authSvc.Validate(r.Context(), auth.TokenFromRequest(r)); err != nil {
		sendError(w, "Authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	if err := uploader.Delete(r.Context(), id); err != nil {
		sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}
