package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/terra-clan/consult-portal/internal/models"
)

// ListServiceTemplates retrieves all service templates
func (c *Client) ListServiceTemplates(ctx context.Context) ([]models.ServiceTemplate, error) {
	var templates []models.ServiceTemplate
	if err := c.getJSON(ctx, http.MethodGet, "/service-templates/", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// GetServiceTemplate retrieves a service template by ID
func (c *Client) GetServiceTemplate(ctx context.Context, id string) (*models.ServiceTemplate, error) {
	var tmpl models.ServiceTemplate
	if err := c.getJSON(ctx, http.MethodGet, fmt.Sprintf("/service-templates/%s/", url.PathEscape(id)), nil, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// ListDurationOptions retrieves the duration options of a template
func (c *Client) ListDurationOptions(ctx context.Context, templateID string) ([]models.ServiceDurationOption, error) {
	q := url.Values{}
	q.Set("service_template_id", templateID)

	var options []models.ServiceDurationOption
	if err := c.getJSON(ctx, http.MethodGet, "/service-duration-options/?"+q.Encode(), nil, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// CreateDurationOption creates a duration option
func (c *Client) CreateDurationOption(ctx context.Context, input models.DurationOptionInput) (*models.ServiceDurationOption, error) {
	var opt models.ServiceDurationOption
	if err := c.getJSON(ctx, http.MethodPost, "/service-duration-options/", input, &opt); err != nil {
		return nil, err
	}
	return &opt, nil
}

// UpdateDurationOption updates a duration option
func (c *Client) UpdateDurationOption(ctx context.Context, id string, input models.DurationOptionInput) (*models.ServiceDurationOption, error) {
	var opt models.ServiceDurationOption
	if err := c.getJSON(ctx, http.MethodPut, fmt.Sprintf("/service-duration-options/%s/", url.PathEscape(id)), input, &opt); err != nil {
		return nil, err
	}
	return &opt, nil
}

// DeleteDurationOption deletes a duration option
func (c *Client) DeleteDurationOption(ctx context.Context, id string) error {
	return c.getJSON(ctx, http.MethodDelete, fmt.Sprintf("/service-duration-options/%s/", url.PathEscape(id)), nil, nil)
}
