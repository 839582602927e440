package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/consult-portal/internal/events"
	"github.com/terra-clan/consult-portal/internal/intake"
	"github.com/terra-clan/consult-portal/internal/metrics"
	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/internal/upload"
	"github.com/terra-clan/consult-portal/pkg/client"
)

const maxMultipartMemory = 32 << 20

type stageUpdateRequest struct {
	Data intake.Data `json:"data"`
}

// loadStore fetches the caller's intake into a fresh store; it writes the
// error response itself
func (s *Server) loadStore(w http.ResponseWriter, r *http.Request) (*intake.Store, bool) {
	store := intake.NewStore(s.backendFor(r))
	if err := store.Load(r.Context()); err != nil {
		respondBackendError(w, err, "load intake")
		return nil, false
	}
	return store, true
}

// publish is best effort; a missing listener or a redis hiccup never fails
// the request that caused the event
func (s *Server) publish(ctx context.Context, userID, eventType string, stage int, payload interface{}) {
	if s.deps.Events == nil {
		return
	}
	if err := s.deps.Events.Publish(ctx, userID, eventType, stage, payload); err != nil {
		slog.Warn("failed to publish event", "type", eventType, "user_id", userID, "error", err)
	}
}

func (s *Server) handleGetIntake(w http.ResponseWriter, r *http.Request) {
	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, store.Record())
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, store.Progress())
}

func (s *Server) handleUpdateStage(w http.ResponseWriter, r *http.Request) {
	stage, ok := stageParam(w, r)
	if !ok {
		return
	}

	var req stageUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Data) == 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "data must contain at least one field")
		return
	}
	if err := s.deps.Validator.Validate(stage, req.Data); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if s.deps.Catalog != nil {
		if err := s.deps.Catalog.CheckAnswers(req.Data); err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}

	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}
	if err := store.UpdateStage(r.Context(), stage, req.Data); err != nil {
		respondBackendError(w, err, "update stage")
		return
	}

	sess := SessionFromContext(r.Context())
	if s.deps.Drafts != nil {
		if err := s.deps.Drafts.DeleteDraft(r.Context(), sess.User.ID, stage); err != nil {
			slog.Warn("failed to drop saved draft", "error", err, "user_id", sess.User.ID, "stage", stage)
		}
	}

	progress := store.Progress()
	s.publish(r.Context(), sess.User.ID, events.TypeStageSaved, stage, progress)
	respondJSON(w, http.StatusOK, progress)
}

func (s *Server) handleCompleteStage(w http.ResponseWriter, r *http.Request) {
	stage, ok := stageParam(w, r)
	if !ok {
		return
	}

	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}

	err := store.CompleteStage(r.Context(), stage)
	var incomplete *intake.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		metrics.ObserveStageCompletion(stage, "incomplete")
		respondErrorDetails(w, http.StatusUnprocessableEntity, "stage_incomplete", err.Error(),
			map[string]interface{}{"stage": stage, "missing": incomplete.Missing})
		return
	case err != nil:
		metrics.ObserveStageCompletion(stage, "failed")
		respondBackendError(w, err, "complete stage")
		return
	}

	metrics.ObserveStageCompletion(stage, "completed")
	progress := store.Progress()
	s.publish(r.Context(), SessionFromContext(r.Context()).User.ID, events.TypeStageCompleted, stage, progress)
	respondJSON(w, http.StatusOK, progress)
}

// --- Drafts ---

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	drafts, err := s.deps.Drafts.ListDrafts(r.Context(), sess.User.ID)
	if err != nil {
		slog.Error("failed to list drafts", "error", err, "user_id", sess.User.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list drafts")
		return
	}
	if drafts == nil {
		drafts = []*models.StageDraft{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"drafts": drafts,
		"total":  len(drafts),
	})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	stage, ok := stageParam(w, r)
	if !ok {
		return
	}
	sess := SessionFromContext(r.Context())

	draft, err := s.deps.Drafts.GetDraft(r.Context(), sess.User.ID, stage)
	if err != nil {
		slog.Error("failed to get draft", "error", err, "user_id", sess.User.ID, "stage", stage)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get draft")
		return
	}
	if draft == nil {
		respondError(w, http.StatusNotFound, "not_found", "no draft for this stage")
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	stage, ok := stageParam(w, r)
	if !ok {
		return
	}

	var req stageUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Data == nil {
		req.Data = intake.Data{}
	}

	sess := SessionFromContext(r.Context())
	draft := &models.StageDraft{
		UserID:    sess.User.ID,
		Stage:     stage,
		Data:      req.Data,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.deps.Drafts.SaveDraft(r.Context(), draft); err != nil {
		slog.Error("failed to save draft", "error", err, "user_id", sess.User.ID, "stage", stage)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to save draft")
		return
	}

	respondJSON(w, http.StatusOK, draft)
}

// --- Documents ---

type uploadResponse struct {
	Results   []upload.Result           `json:"results"`
	Documents []models.UploadedDocument `json:"documents"`
	SaveError string                    `json:"save_error,omitempty"`
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	stage := intake.DocumentStage
	if v := r.FormValue("stage"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", "stage must be a number")
			return
		}
		stage = n
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "no files selected")
		return
	}

	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}
	existing, err := intake.Documents(store.Data())
	if err != nil {
		slog.Error("failed to read stored documents", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "stored documents are unreadable")
		return
	}

	userID := SessionFromContext(r.Context()).User.ID
	backend := s.backendFor(r)
	queue := upload.NewQueue(backend, s.deps.UploadLimits,
		upload.WithConcurrency(s.deps.UploadConcurrency),
		upload.WithObserver(func(e upload.Event) {
			switch e.Status {
			case upload.StatusStored, upload.StatusRejected, upload.StatusFailed:
				metrics.Uploads.WithLabelValues(string(e.Status)).Inc()
			}
			s.publish(context.WithoutCancel(r.Context()), userID, events.TypeUpload, stage, e)
		}),
	)

	files := make([]upload.File, len(headers))
	for i, fh := range headers {
		fh := fh
		files[i] = upload.File{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Open:        func() (io.ReadCloser, error) { return openPart(fh) },
		}
	}

	results := queue.Submit(r.Context(), stage, len(existing), files)
	resp := uploadResponse{Results: results, Documents: existing}

	stored := upload.Stored(results)
	if len(stored) > 0 {
		docs := append(append([]models.UploadedDocument{}, existing...), stored...)
		if err := s.saveDocuments(r.Context(), store, docs); err != nil {
			resp.SaveError = client.Message(err)
		} else {
			resp.Documents = docs
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	store, ok := s.loadStore(w, r)
	if !ok {
		return
	}
	docs, err := intake.Documents(store.Data())
	if err != nil {
		slog.Error("failed to read stored documents", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "stored documents are unreadable")
		return
	}

	remaining, err := upload.Remove(r.Context(), s.backendFor(r), docs, id)
	if err != nil {
		respondBackendError(w, err, "remove document")
		return
	}

	if err := s.saveDocuments(r.Context(), store, remaining); err != nil {
		respondBackendError(w, err, "save documents")
		return
	}

	s.publish(r.Context(), SessionFromContext(r.Context()).User.ID, events.TypeDocumentRemove, intake.DocumentStage,
		map[string]string{"document_id": id})
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": remaining,
	})
}

func (s *Server) saveDocuments(ctx context.Context, store *intake.Store, docs []models.UploadedDocument) error {
	partial, err := intake.DocumentsUpdate(docs)
	if err != nil {
		return err
	}
	return store.UpdateStage(ctx, intake.DocumentStage, partial)
}

func openPart(fh *multipart.FileHeader) (io.ReadCloser, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	return f, nil
}
