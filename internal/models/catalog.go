package models

// ServiceTemplate is an admin-owned service definition
type ServiceTemplate struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	DefaultDuration    int     `json:"default_duration"`
	DefaultDescription string  `json:"default_description"`
	MinPrice           float64 `json:"min_price"`
	MaxPrice           float64 `json:"max_price"`
	IsActive           bool    `json:"is_active"`
}

// ServiceDurationOption is a bookable session length of a template with its
// own allowed price band
type ServiceDurationOption struct {
	ID                string  `json:"id"`
	ServiceTemplateID string  `json:"service_template_id"`
	DurationMinutes   int     `json:"duration_minutes"`
	DurationLabel     string  `json:"duration_label"`
	MinPrice          float64 `json:"min_price"`
	MaxPrice          float64 `json:"max_price"`
	OrderIndex        int     `json:"order_index"`
	IsActive          bool    `json:"is_active"`
}

// DurationOptionInput is the create/update payload for a duration option
type DurationOptionInput struct {
	ServiceTemplateID string  `json:"service_template_id" yaml:"service_template_id"`
	DurationMinutes   int     `json:"duration_minutes" yaml:"duration_minutes"`
	DurationLabel     string  `json:"duration_label" yaml:"duration_label"`
	MinPrice          float64 `json:"min_price" yaml:"min_price"`
	MaxPrice          float64 `json:"max_price" yaml:"max_price"`
	OrderIndex        int     `json:"order_index" yaml:"order_index"`
	IsActive          bool    `json:"is_active" yaml:"is_active"`
}

// ConsultantService is a consultant's instance of a service template
type ConsultantService struct {
	ID                string  `json:"id"`
	ConsultantID      string  `json:"consultant_id"`
	ServiceTemplateID string  `json:"service_template_id"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	Price             float64 `json:"price"`
	IsActive          bool    `json:"is_active"`
}

// ConsultantServicePricing links a consultant service to a duration option
// with a concrete price
type ConsultantServicePricing struct {
	ID                  string                 `json:"id"`
	ConsultantServiceID string                 `json:"consultant_service_id"`
	DurationOptionID    string                 `json:"duration_option_id"`
	DurationOption      *ServiceDurationOption `json:"duration_option,omitempty"`
	Price               float64                `json:"price"`
	IsActive            bool                   `json:"is_active"`
}

// PricingOption is one row of a bulk set-pricing request
type PricingOption struct {
	DurationOptionID string  `json:"duration_option_id" yaml:"duration_option_id"`
	Price            float64 `json:"price" yaml:"price"`
	IsActive         bool    `json:"is_active" yaml:"is_active"`
}

// SetPricingRequest replaces the full pricing set of one consultant service
type SetPricingRequest struct {
	ConsultantServiceID string          `json:"consultant_service_id"`
	PricingOptions      []PricingOption `json:"pricing_options"`
}

// TemplateOverview is a template with its duration option count
type TemplateOverview struct {
	ServiceTemplate
	DurationOptionCount int `json:"duration_option_count"`
}
