// Package booking implements the three-step booking wizard.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/internal/pricing"
)

// Step is a wizard step
type Step string

const (
	StepSelectService Step = "select_service"
	StepPayment       Step = "payment"
	StepConfirmation  Step = "confirmation"
)

// Steps lists the wizard in order
var Steps = []Step{StepSelectService, StepPayment, StepConfirmation}

var (
	ErrUnknownStep     = errors.New("unknown booking step")
	ErrIncomplete      = errors.New("booking is incomplete")
	ErrUnknownOption   = errors.New("duration option not offered by this service")
	ErrPriceOutOfRange = errors.New("price outside the allowed range")
	ErrScheduledInPast = errors.New("scheduled time must be in the future")
)

// IncompleteError lists what a step still needs
type IncompleteError struct {
	Step    Step
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: step %s is missing %s", ErrIncomplete, e.Step, strings.Join(e.Missing, ", "))
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// Missing returns the fields a step still needs
func Missing(step Step, data models.BookingData) ([]string, error) {
	var missing []string
	switch step {
	case StepSelectService:
		if data.ConsultantID == "" {
			missing = append(missing, "consultant_id")
		}
		if data.ConsultantServiceID == "" {
			missing = append(missing, "consultant_service_id")
		}
		if data.DurationOptionID == "" {
			missing = append(missing, "duration_option_id")
		}
		if data.Price <= 0 {
			missing = append(missing, "price")
		}
		if data.ScheduledAt.IsZero() {
			missing = append(missing, "scheduled_at")
		}
	case StepPayment:
		if strings.TrimSpace(data.PaymentMethod) == "" {
			missing = append(missing, "payment_method")
		}
	case StepConfirmation:
		if !data.AcceptedTerms {
			missing = append(missing, "accepted_terms")
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	return missing, nil
}

// Advance returns the step after step once step is complete. The final
// step advances to itself.
func Advance(step Step, data models.BookingData) (Step, error) {
	missing, err := Missing(step, data)
	if err != nil {
		return step, err
	}
	if len(missing) > 0 {
		return step, &IncompleteError{Step: step, Missing: missing}
	}
	for i, s := range Steps {
		if s == step && i+1 < len(Steps) {
			return Steps[i+1], nil
		}
	}
	return step, nil
}

// Backend is the backend surface of a booking submission
type Backend interface {
	GetConsultantService(ctx context.Context, id string) (*models.ConsultantService, error)
	ListDurationOptions(ctx context.Context, templateID string) ([]models.ServiceDurationOption, error)
	CreateBooking(ctx context.Context, data models.BookingData) (*models.Booking, error)
}

// Flow submits completed bookings
type Flow struct {
	backend Backend
	now     func() time.Time
}

// NewFlow creates a booking flow
func NewFlow(backend Backend) *Flow {
	return &Flow{backend: backend, now: time.Now}
}

// Validate checks every step and the chosen price against the duration
// option's band
func (f *Flow) Validate(ctx context.Context, data models.BookingData) (*models.ServiceDurationOption, error) {
	for _, step := range Steps {
		missing, err := Missing(step, data)
		if err != nil {
			return nil, err
		}
		if len(missing) > 0 {
			return nil, &IncompleteError{Step: step, Missing: missing}
		}
	}
	if !data.ScheduledAt.After(f.now()) {
		return nil, ErrScheduledInPast
	}

	service, err := f.backend.GetConsultantService(ctx, data.ConsultantServiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get consultant service: %w", err)
	}
	options, err := f.backend.ListDurationOptions(ctx, service.ServiceTemplateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list duration options: %w", err)
	}

	for i := range options {
		opt := options[i]
		if opt.ID != data.DurationOptionID {
			continue
		}
		if !opt.IsActive {
			break
		}
		if !pricing.PriceInRange(opt, data.Price) {
			return nil, fmt.Errorf("%w: %.2f not in %.2f-%.2f", ErrPriceOutOfRange, data.Price, opt.MinPrice, opt.MaxPrice)
		}
		return &opt, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownOption, data.DurationOptionID)
}

// Submit validates the booking and posts it to the backend
func (f *Flow) Submit(ctx context.Context, data models.BookingData) (*models.Booking, error) {
	if _, err := f.Validate(ctx, data); err != nil {
		return nil, err
	}

	booking, err := f.backend.CreateBooking(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return booking, nil
}
