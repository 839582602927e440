package models

import "time"

// BookingData is shared by the booking wizard steps
type BookingData struct {
	ConsultantID        string    `json:"consultant_id"`
	ConsultantServiceID string    `json:"consultant_service_id"`
	DurationOptionID    string    `json:"duration_option_id"`
	Price               float64   `json:"price"`
	ScheduledAt         time.Time `json:"scheduled_at"`
	PaymentMethod       string    `json:"payment_method"`
	PaymentReference    string    `json:"payment_reference"`
	AcceptedTerms       bool      `json:"accepted_terms"`
	Notes               string    `json:"notes,omitempty"`
}

// Booking is a confirmed booking returned by the backend
type Booking struct {
	ID                  string    `json:"id"`
	ClientID            string    `json:"client_id"`
	ConsultantID        string    `json:"consultant_id"`
	ConsultantServiceID string    `json:"consultant_service_id"`
	DurationOptionID    string    `json:"duration_option_id"`
	Price               float64   `json:"price"`
	ScheduledAt         time.Time `json:"scheduled_at"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
}
