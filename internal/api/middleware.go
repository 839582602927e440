package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/terra-clan/consult-portal/internal/session"
)

// AuthMiddleware resolves portal sessions
type AuthMiddleware struct {
	sessions SessionStore
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(sessions SessionStore) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate loads the session named by the request.
// Accepts "Authorization: Bearer <id>", X-Session-ID, or the session_token
// query parameter (browsers cannot set headers on websocket upgrades).
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := extractSessionID(r)
		if id == "" {
			respondError(w, http.StatusUnauthorized, "missing_session", "sign in to continue")
			return
		}

		sess, err := m.sessions.Get(r.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			slog.Debug("unknown or expired session", "session", maskID(id), "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid_session", "your session has expired, sign in again")
			return
		}
		if err != nil {
			slog.Error("failed to load session", "error", err, "session", maskID(id))
			respondError(w, http.StatusInternalServerError, "internal_error", "authentication error")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}

// RequirePermission returns middleware that checks the session role
func (m *AuthMiddleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil {
				respondError(w, http.StatusUnauthorized, "not_authenticated", "authentication required")
				return
			}

			if !sess.User.HasPermission(permission) {
				slog.Warn("permission denied",
					"user_id", sess.User.ID,
					"role", sess.User.Role,
					"required", permission,
				)
				respondError(w, http.StatusForbidden, "permission_denied",
					"your account cannot perform this action: "+permission)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractSessionID(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if id := r.Header.Get("X-Session-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("session_token")
}

// maskID returns the first 8 chars of a session id for safe logging
func maskID(id string) string {
	if len(id) < 8 {
		return "***"
	}
	return id[:8] + "..."
}
