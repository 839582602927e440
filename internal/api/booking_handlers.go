package api

import (
	"errors"
	"net/http"

	"github.com/terra-clan/consult-portal/internal/booking"
	"github.com/terra-clan/consult-portal/internal/models"
)

type validateBookingRequest struct {
	Step booking.Step       `json:"step,omitempty"`
	Data models.BookingData `json:"data"`
}

func (s *Server) handleValidateBooking(w http.ResponseWriter, r *http.Request) {
	var req validateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Step != "" {
		next, err := booking.Advance(req.Step, req.Data)
		if err != nil {
			respondBookingError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"step":      req.Step,
			"next_step": next,
		})
		return
	}

	option, err := booking.NewFlow(s.backendFor(r)).Validate(r.Context(), req.Data)
	if err != nil {
		respondBookingError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":           true,
		"duration_option": option,
	})
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var data models.BookingData
	if !decodeJSON(w, r, &data) {
		return
	}

	created, err := booking.NewFlow(s.backendFor(r)).Submit(r.Context(), data)
	if err != nil {
		respondBookingError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func respondBookingError(w http.ResponseWriter, err error) {
	var incomplete *booking.IncompleteError
	switch {
	case errors.As(err, &incomplete):
		respondErrorDetails(w, http.StatusUnprocessableEntity, "booking_incomplete", err.Error(),
			map[string]interface{}{"step": incomplete.Step, "missing": incomplete.Missing})
	case errors.Is(err, booking.ErrUnknownStep):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, booking.ErrPriceOutOfRange),
		errors.Is(err, booking.ErrUnknownOption),
		errors.Is(err, booking.ErrScheduledInPast):
		respondError(w, http.StatusUnprocessableEntity, "invalid_booking", err.Error())
	default:
		respondBackendError(w, err, "booking")
	}
}
