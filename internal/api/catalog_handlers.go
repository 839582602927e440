package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/internal/pricing"
)

// --- Service templates and duration options ---

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	backend := s.backendFor(r)

	templates, err := backend.ListServiceTemplates(r.Context())
	if err != nil {
		respondBackendError(w, err, "list templates")
		return
	}

	overview := pricing.CountDurationOptions(r.Context(), backend, templates)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"templates": overview,
		"total":     len(overview),
	})
}

func (s *Server) handleListDurationOptions(w http.ResponseWriter, r *http.Request) {
	screen := pricing.NewDurationOptionScreen(s.backendFor(r), chi.URLParam(r, "id"))
	if err := screen.Refresh(r.Context()); err != nil {
		respondBackendError(w, err, "list duration options")
		return
	}

	respondJSON(w, http.StatusOK, screen.Options())
}

func (s *Server) handleCreateDurationOption(w http.ResponseWriter, r *http.Request) {
	var input models.DurationOptionInput
	if !decodeJSON(w, r, &input) {
		return
	}

	screen := pricing.NewDurationOptionScreen(s.backendFor(r), chi.URLParam(r, "id"))
	if err := screen.Create(r.Context(), input); err != nil {
		respondScreenError(w, err, "create duration option")
		return
	}

	respondJSON(w, http.StatusCreated, screen.Options())
}

func (s *Server) handleUpdateDurationOption(w http.ResponseWriter, r *http.Request) {
	var input models.DurationOptionInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.ServiceTemplateID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "service_template_id is required")
		return
	}

	screen := pricing.NewDurationOptionScreen(s.backendFor(r), input.ServiceTemplateID)
	if err := screen.Update(r.Context(), chi.URLParam(r, "id"), input); err != nil {
		respondScreenError(w, err, "update duration option")
		return
	}

	respondJSON(w, http.StatusOK, screen.Options())
}

func (s *Server) handleDeleteDurationOption(w http.ResponseWriter, r *http.Request) {
	templateID := r.URL.Query().Get("service_template_id")
	if templateID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "service_template_id is required")
		return
	}

	screen := pricing.NewDurationOptionScreen(s.backendFor(r), templateID)
	if err := screen.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondScreenError(w, err, "delete duration option")
		return
	}

	respondJSON(w, http.StatusOK, screen.Options())
}

// --- Consultant pricing ---

func (s *Server) handleListConsultantServices(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	consultantID := sess.User.ConsultantID
	if id := r.URL.Query().Get("consultant_id"); id != "" && sess.User.Role == models.RoleAdmin {
		consultantID = id
	}
	if consultantID == "" {
		respondError(w, http.StatusForbidden, "permission_denied", "no consultant profile is linked to this account")
		return
	}

	overview, err := pricing.LoadOverview(r.Context(), s.backendFor(r), consultantID)
	if err != nil {
		respondBackendError(w, err, "load consultant overview")
		return
	}

	respondJSON(w, http.StatusOK, overview)
}

type pricingResponse struct {
	Service         *models.ConsultantService         `json:"service"`
	DurationOptions []models.ServiceDurationOption    `json:"duration_options"`
	Pricing         []models.ConsultantServicePricing `json:"pricing"`
}

type setPricingRequest struct {
	PricingOptions []models.PricingOption `json:"pricing_options"`
}

// pricingScreen loads the service, checks ownership and returns a loaded
// screen; it writes the error response itself
func (s *Server) pricingScreen(w http.ResponseWriter, r *http.Request) (*pricing.PricingScreen, *models.ConsultantService, bool) {
	backend := s.backendFor(r)

	service, err := backend.GetConsultantService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondBackendError(w, err, "get consultant service")
		return nil, nil, false
	}

	user := SessionFromContext(r.Context()).User
	if user.Role != models.RoleAdmin && service.ConsultantID != user.ConsultantID {
		respondError(w, http.StatusForbidden, "permission_denied", "this service belongs to another consultant")
		return nil, nil, false
	}

	screen := pricing.NewPricingScreen(backend, *service)
	if err := screen.Load(r.Context()); err != nil {
		respondBackendError(w, err, "load pricing")
		return nil, nil, false
	}
	return screen, service, true
}

func (s *Server) handleGetPricing(w http.ResponseWriter, r *http.Request) {
	screen, service, ok := s.pricingScreen(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, pricingResponse{
		Service:         service,
		DurationOptions: screen.Options(),
		Pricing:         screen.Pricing(),
	})
}

func (s *Server) handleSetPricing(w http.ResponseWriter, r *http.Request) {
	var req setPricingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	screen, service, ok := s.pricingScreen(w, r)
	if !ok {
		return
	}

	if err := screen.SetPricing(r.Context(), req.PricingOptions); err != nil {
		respondScreenError(w, err, "set pricing")
		return
	}

	respondJSON(w, http.StatusOK, pricingResponse{
		Service:         service,
		DurationOptions: screen.Options(),
		Pricing:         screen.Pricing(),
	})
}

// respondScreenError maps client-side gate failures before backend ones
func respondScreenError(w http.ResponseWriter, err error, action string) {
	var verr *pricing.ValidationError
	switch {
	case errors.As(err, &verr):
		respondErrorDetails(w, http.StatusUnprocessableEntity, "invalid_pricing", err.Error(), verr.Violations)
	case errors.Is(err, pricing.ErrInvalidOption):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, pricing.ErrSaveInProgress):
		respondError(w, http.StatusConflict, "save_in_progress", err.Error())
	default:
		respondBackendError(w, err, action)
	}
}
