package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/airlift/airlift/internal/auth"
)

// LoginHandler verifies admin credentials and sets a session cookie. The
// token is also returned in the body for clients using Bearer auth.
func LoginHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendError(w, "Invalid JSON body", "INVALID_JSON", http.StatusBadRequest)
			return
		}

		token, err := authSvc.Login(r.Context(), req.Username, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Warn("failed login attempt", "username", req.Username, "client_ip", getClientIP(r))
			sendError(w, "Invalid credentials", "INVALID_CREDENTIALS", http.StatusUnauthorized)
			return
		}
		if err != nil {
			slog.Error("login failed", "error", err)
			sendError(w, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(authSvc.TTL().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		sendJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

// LogoutHandler invalidates the current session.
func LogoutHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		if err := authSvc.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
			slog.Error("logout failed", "error", err)
			sendError(w, "Internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		sendJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// AuthCheckHandler reports whether the request carries a valid session.
func AuthCheckHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			sendError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
			return
		}

		authenticated := authSvc.Validate(r.Context(), auth.TokenFromRequest(r)) == nil
		sendJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
	}
}
