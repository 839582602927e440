// Package pricing holds the duration option and consultant pricing screens
// and the client-side price gates used before anything is sent to the backend.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/terra-clan/consult-portal/internal/models"
)

var (
	ErrSaveInProgress = errors.New("a save is already in progress")
	ErrInvalidPricing = errors.New("invalid pricing")
	ErrInvalidOption  = errors.New("invalid duration option")
)

// Violation is a per-row pricing problem
type Violation struct {
	DurationOptionID string  `json:"duration_option_id"`
	Price            float64 `json:"price"`
	Message          string  `json:"message"`
}

// ValidationError aggregates pricing violations
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidPricing, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidPricing }

// PriceInRange reports whether price lies in the option's inclusive band
func PriceInRange(option models.ServiceDurationOption, price float64) bool {
	return price >= option.MinPrice && price <= option.MaxPrice
}

// ValidatePricing checks every submitted entry, active or not, against its
// duration option. Rows are independent.
func ValidatePricing(options []models.ServiceDurationOption, entries []models.PricingOption) []Violation {
	byID := make(map[string]models.ServiceDurationOption, len(options))
	for _, o := range options {
		byID[o.ID] = o
	}

	var violations []Violation
	for _, e := range entries {
		opt, ok := byID[e.DurationOptionID]
		switch {
		case !ok:
			violations = append(violations, Violation{
				DurationOptionID: e.DurationOptionID,
				Price:            e.Price,
				Message:          fmt.Sprintf("unknown duration option %s", e.DurationOptionID),
			})
		case !PriceInRange(opt, e.Price):
			violations = append(violations, Violation{
				DurationOptionID: e.DurationOptionID,
				Price:            e.Price,
				Message: fmt.Sprintf("price for %s must be between %.2f and %.2f",
					label(opt), opt.MinPrice, opt.MaxPrice),
			})
		}
	}
	return violations
}

// ValidateDurationOption checks a create/update payload
func ValidateDurationOption(input models.DurationOptionInput) error {
	switch {
	case strings.TrimSpace(input.DurationLabel) == "":
		return fmt.Errorf("%w: duration label is required", ErrInvalidOption)
	case input.DurationMinutes <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidOption)
	case input.MinPrice < 0:
		return fmt.Errorf("%w: minimum price cannot be negative", ErrInvalidOption)
	case input.MinPrice > input.MaxPrice:
		return fmt.Errorf("%w: minimum price exceeds maximum price", ErrInvalidOption)
	}
	return nil
}

func label(o models.ServiceDurationOption) string {
	if o.DurationLabel != "" {
		return o.DurationLabel
	}
	return fmt.Sprintf("%d minutes", o.DurationMinutes)
}
