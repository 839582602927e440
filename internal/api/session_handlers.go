package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/consult-portal/internal/models"
)

// --- Session handlers ---

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "token is required")
		return
	}

	user, err := s.deps.Backend.WithToken(req.Token).Me(r.Context())
	if err != nil {
		respondBackendError(w, err, "resolve user")
		return
	}

	sess, err := s.deps.Sessions.Create(r.Context(), *user, req.Token)
	if err != nil {
		slog.Error("failed to create session", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	respondJSON(w, http.StatusCreated, models.CreateSessionResponse{
		SessionID: sess.ID,
		User:      sess.User,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":       sess.User,
		"expires_at": sess.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := s.deps.Sessions.Delete(r.Context(), sess.ID); err != nil {
		slog.Error("failed to delete session", "error", err, "user_id", sess.User.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to sign out")
		return
	}

	slog.Info("session closed", "user_id", sess.User.ID)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "signed out",
	})
}

// --- Option catalog handlers ---

func (s *Server) handleListOptions(w http.ResponseWriter, r *http.Request) {
	lists := s.deps.Catalog.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"options": lists,
		"total":   len(lists),
	})
}

func (s *Server) handleGetOptions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	list := s.deps.Catalog.Get(name)
	if list == nil {
		respondError(w, http.StatusNotFound, "not_found", "option list not found")
		return
	}

	respondJSON(w, http.StatusOK, list)
}
