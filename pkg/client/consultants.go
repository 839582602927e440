package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/terra-clan/consult-portal/internal/models"
)

// Me resolves the user behind the client's token
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.getJSON(ctx, http.MethodGet, "/auth/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListConsultantServices retrieves a consultant's services
func (c *Client) ListConsultantServices(ctx context.Context, consultantID string) ([]models.ConsultantService, error) {
	var services []models.ConsultantService
	if err := c.getJSON(ctx, http.MethodGet, fmt.Sprintf("/consultants/%s/services/", url.PathEscape(consultantID)), nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// GetConsultantService retrieves a consultant service by ID
func (c *Client) GetConsultantService(ctx context.Context, id string) (*models.ConsultantService, error) {
	var svc models.ConsultantService
	if err := c.getJSON(ctx, http.MethodGet, fmt.Sprintf("/consultant-services/%s/", url.PathEscape(id)), nil, &svc); err != nil {
		return nil, err
	}
	return &svc, nil
}

// GetServicePricing retrieves the pricing rows of a consultant service
func (c *Client) GetServicePricing(ctx context.Context, consultantServiceID string) ([]models.ConsultantServicePricing, error) {
	var pricing []models.ConsultantServicePricing
	if err := c.getJSON(ctx, http.MethodGet, fmt.Sprintf("/consultant-services/%s/pricing/", url.PathEscape(consultantServiceID)), nil, &pricing); err != nil {
		return nil, err
	}
	return pricing, nil
}

// SetServicePricing replaces the full pricing set of a consultant service
func (c *Client) SetServicePricing(ctx context.Context, req models.SetPricingRequest) ([]models.ConsultantServicePricing, error) {
	var pricing []models.ConsultantServicePricing
	if err := c.getJSON(ctx, http.MethodPost, "/consultant-services/set-pricing/", req, &pricing); err != nil {
		return nil, err
	}
	return pricing, nil
}

// CreateBooking submits a completed booking
func (c *Client) CreateBooking(ctx context.Context, data models.BookingData) (*models.Booking, error) {
	var booking models.Booking
	if err := c.getJSON(ctx, http.MethodPost, "/bookings/", data, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}
