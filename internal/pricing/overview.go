package pricing

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/consult-portal/internal/models"
)

// fanOutLimit bounds concurrent per-template fetches
const fanOutLimit = 8

// CatalogBackend is what the overview fan-out needs
type CatalogBackend interface {
	ListServiceTemplates(ctx context.Context) ([]models.ServiceTemplate, error)
	ListDurationOptions(ctx context.Context, templateID string) ([]models.ServiceDurationOption, error)
	ListConsultantServices(ctx context.Context, consultantID string) ([]models.ConsultantService, error)
}

// CountDurationOptions fetches the option list of every template
// concurrently. A failed fetch counts as 0; the batch itself never fails.
func CountDurationOptions(ctx context.Context, backend CatalogBackend, templates []models.ServiceTemplate) []models.TemplateOverview {
	out := make([]models.TemplateOverview, len(templates))

	g := new(errgroup.Group)
	g.SetLimit(fanOutLimit)
	for i, t := range templates {
		i, t := i, t
		out[i] = models.TemplateOverview{ServiceTemplate: t}
		g.Go(func() error {
			options, err := backend.ListDurationOptions(ctx, t.ID)
			if err != nil {
				slog.Warn("failed to count duration options", "template_id", t.ID, "error", err)
				return nil
			}
			out[i].DurationOptionCount = len(options)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Overview is the consultant landing data
type Overview struct {
	Services  []models.ConsultantService `json:"services"`
	Templates []models.TemplateOverview  `json:"templates"`
}

// LoadOverview fetches the consultant's services and the template catalog
// together, then counts duration options per template
func LoadOverview(ctx context.Context, backend CatalogBackend, consultantID string) (*Overview, error) {
	var (
		services  []models.ConsultantService
		templates []models.ServiceTemplate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		services, err = backend.ListConsultantServices(gctx, consultantID)
		if err != nil {
			return fmt.Errorf("failed to list consultant services: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		templates, err = backend.ListServiceTemplates(gctx)
		if err != nil {
			return fmt.Errorf("failed to list service templates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Overview{
		Services:  services,
		Templates: CountDurationOptions(ctx, backend, templates),
	}, nil
}
