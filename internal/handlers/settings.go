package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/airlift/airlift/internal/auth"
	"github.com/airlift/airlift/internal/models"
	"github.com/airlift/airlift/internal/service"
)

// SettingsHandler serves the settings document. Reads are public with
// credentials redacted; writes require an admin session and use merge
// semantics (absent fields keep their previous value).
func SettingsHandler(settings *service.SettingsService, authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			current, err := settings.Get(r.Context())
			if err != nil {
				sendServiceError(w, err)
				return
			}
			sendJSON(w, http.StatusOK, current.Redacted())

		case http.MethodPost:
			if err := authSvc.Validate(r.Context(), auth.TokenFromRequest(r)); err != nil {
				sendError(w, "Authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
				return
			}

			var patch models.SettingsPatch
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				sendError(w, "Invalid JSON body", "INVALID_JSON", http.StatusBadRequest)
				return
			}

			saved, err := settings.Save(r.Context(), patch)
			if err != nil {
				sendServiceError(w, err)
				return
			}
			sendJSON(w, http.StatusOK, saved.Redacted())

		default:
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
		}
	}
}
