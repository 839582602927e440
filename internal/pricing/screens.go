package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/pkg/client"
)

// DurationBackend is the backend surface of the duration option screen
type DurationBackend interface {
	ListDurationOptions(ctx context.Context, templateID string) ([]models.ServiceDurationOption, error)
	CreateDurationOption(ctx context.Context, input models.DurationOptionInput) (*models.ServiceDurationOption, error)
	UpdateDurationOption(ctx context.Context, id string, input models.DurationOptionInput) (*models.ServiceDurationOption, error)
	DeleteDurationOption(ctx context.Context, id string) error
}

// PricingBackend is the backend surface of the consultant pricing screen
type PricingBackend interface {
	ListDurationOptions(ctx context.Context, templateID string) ([]models.ServiceDurationOption, error)
	GetServicePricing(ctx context.Context, consultantServiceID string) ([]models.ConsultantServicePricing, error)
	SetServicePricing(ctx context.Context, req models.SetPricingRequest) ([]models.ConsultantServicePricing, error)
}

// saver is the single in-flight save flag shared by both screens
type saver struct {
	mu     sync.Mutex
	saving bool
	err    string
}

func (s *saver) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saving {
		return ErrSaveInProgress
	}
	s.saving = true
	return nil
}

func (s *saver) end() {
	s.mu.Lock()
	s.saving = false
	s.mu.Unlock()
}

func (s *saver) record(action string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.err = ""
		return nil
	}
	slog.Warn("pricing screen action failed", "action", action, "error", err)
	s.err = client.Message(err)
	return err
}

// Saving reports whether a mutation is in flight
func (s *saver) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Err returns the last inline error, empty after a successful action
func (s *saver) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// DurationOptionScreen manages the duration options of one service template
type DurationOptionScreen struct {
	saver
	backend    DurationBackend
	templateID string

	listMu  sync.RWMutex
	options []models.ServiceDurationOption
}

// NewDurationOptionScreen creates a screen scoped to a template
func NewDurationOptionScreen(backend DurationBackend, templateID string) *DurationOptionScreen {
	return &DurationOptionScreen{backend: backend, templateID: templateID}
}

// Options returns the last fetched list
func (s *DurationOptionScreen) Options() []models.ServiceDurationOption {
	s.listMu.RLock()
	defer s.listMu.RUnlock()
	out := make([]models.ServiceDurationOption, len(s.options))
	copy(out, s.options)
	return out
}

// Refresh re-fetches the options; on failure the last list is kept
func (s *DurationOptionScreen) Refresh(ctx context.Context) error {
	options, err := s.backend.ListDurationOptions(ctx, s.templateID)
	if err != nil {
		return s.record("refresh", fmt.Errorf("failed to list duration options: %w", err))
	}

	s.listMu.Lock()
	s.options = options
	s.listMu.Unlock()
	return s.record("refresh", nil)
}

// Create adds an option to the template
func (s *DurationOptionScreen) Create(ctx context.Context, input models.DurationOptionInput) error {
	input.ServiceTemplateID = s.templateID
	return s.mutate(ctx, "create", input, func() error {
		_, err := s.backend.CreateDurationOption(ctx, input)
		return err
	})
}

// Update changes an existing option
func (s *DurationOptionScreen) Update(ctx context.Context, id string, input models.DurationOptionInput) error {
	input.ServiceTemplateID = s.templateID
	return s.mutate(ctx, "update", input, func() error {
		_, err := s.backend.UpdateDurationOption(ctx, id, input)
		return err
	})
}

// Delete removes an option
func (s *DurationOptionScreen) Delete(ctx context.Context, id string) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := s.backend.DeleteDurationOption(ctx, id); err != nil {
		return s.record("delete", fmt.Errorf("failed to delete duration option: %w", err))
	}
	return s.Refresh(ctx)
}

func (s *DurationOptionScreen) mutate(ctx context.Context, action string, input models.DurationOptionInput, call func() error) error {
	if err := ValidateDurationOption(input); err != nil {
		return s.record(action, err)
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	if err := call(); err != nil {
		return s.record(action, fmt.Errorf("failed to %s duration option: %w", action, err))
	}
	return s.Refresh(ctx)
}

// PricingScreen manages the pricing rows of one consultant service
type PricingScreen struct {
	saver
	backend PricingBackend
	service models.ConsultantService

	dataMu  sync.RWMutex
	options []models.ServiceDurationOption
	pricing []models.ConsultantServicePricing
}

// NewPricingScreen creates a screen scoped to a consultant service
func NewPricingScreen(backend PricingBackend, service models.ConsultantService) *PricingScreen {
	return &PricingScreen{backend: backend, service: service}
}

// Load fetches the template's duration options and the current pricing in
// parallel. The previous data is kept unless both succeed.
func (s *PricingScreen) Load(ctx context.Context) error {
	var (
		options []models.ServiceDurationOption
		pricing []models.ConsultantServicePricing
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		options, err = s.backend.ListDurationOptions(gctx, s.service.ServiceTemplateID)
		if err != nil {
			return fmt.Errorf("failed to list duration options: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		pricing, err = s.backend.GetServicePricing(gctx, s.service.ID)
		if err != nil {
			return fmt.Errorf("failed to get service pricing: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return s.record("load", err)
	}

	s.dataMu.Lock()
	s.options = options
	s.pricing = pricing
	s.dataMu.Unlock()
	return s.record("load", nil)
}

// Options returns the last fetched duration options
func (s *PricingScreen) Options() []models.ServiceDurationOption {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	out := make([]models.ServiceDurationOption, len(s.options))
	copy(out, s.options)
	return out
}

// Pricing returns the last fetched pricing rows
func (s *PricingScreen) Pricing() []models.ConsultantServicePricing {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	out := make([]models.ConsultantServicePricing, len(s.pricing))
	copy(out, s.pricing)
	return out
}

// SetPricing replaces the full pricing set of the service. Entries are
// gated against the loaded duration options first; a rejected set never
// reaches the backend.
func (s *PricingScreen) SetPricing(ctx context.Context, entries []models.PricingOption) error {
	if violations := ValidatePricing(s.Options(), entries); len(violations) > 0 {
		return s.record("set", &ValidationError{Violations: violations})
	}
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	req := models.SetPricingRequest{
		ConsultantServiceID: s.service.ID,
		PricingOptions:      entries,
	}
	if _, err := s.backend.SetServicePricing(ctx, req); err != nil {
		return s.record("set", fmt.Errorf("failed to set pricing: %w", err))
	}
	return s.Load(ctx)
}
