package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/consult-portal/internal/health"
	"github.com/terra-clan/consult-portal/internal/intake"
	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/pkg/client"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorDetails(w, status, code, message, nil)
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondBackendError maps a marketplace backend failure onto the envelope
func respondBackendError(w http.ResponseWriter, err error, action string) {
	msg := client.Message(err)

	switch {
	case errors.Is(err, client.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", msg)
	case errors.Is(err, client.ErrValidation):
		respondError(w, http.StatusBadRequest, "validation_error", msg)
	case errors.Is(err, client.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "backend_unauthorized", msg)
	case errors.Is(err, client.ErrForbidden):
		respondError(w, http.StatusForbidden, "permission_denied", msg)
	case errors.Is(err, client.ErrTransport):
		slog.Error("backend unreachable", "action", action, "error", err)
		respondError(w, http.StatusBadGateway, "backend_unavailable", msg)
	default:
		slog.Error("backend request failed", "action", action, "error", err)
		respondError(w, http.StatusBadGateway, "backend_error", msg)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// stageParam parses {stage}; it writes the error response itself
func stageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	stage, err := strconv.Atoi(chi.URLParam(r, "stage"))
	if err != nil || !intake.ValidStage(stage) {
		respondError(w, http.StatusBadRequest, "validation_error",
			"stage must be between 1 and "+strconv.Itoa(models.TotalStages))
		return 0, false
	}
	return stage, true
}

// backendFor returns a backend client acting as the session's user
func (s *Server) backendFor(r *http.Request) *client.Client {
	sess := SessionFromContext(r.Context())
	if sess == nil {
		return s.deps.Backend
	}
	return s.deps.Backend.WithToken(sess.BackendToken)
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	results := s.deps.Health.HealthCheckAll(r.Context())
	checks := make(map[string]string, len(results))
	for name, err := range results {
		if err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	if !health.Healthy(results) {
		respondErrorDetails(w, http.StatusServiceUnavailable, "not_ready", "service not ready", checks)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}
