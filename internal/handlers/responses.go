package handlers

import "github.com/avasquez/catador/internal/models"

// LoginResponse returns the opened session identity
type LoginResponse struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

// SampleResponse is the participant-facing view of a sample. The raw
// lifecycle status stays internal; DisplayStatus is what participants see.
type SampleResponse struct {
	Sample        *models.Sample `json:"sample"`
	DisplayStatus string         `json:"display_status"`
}

// ContestStatusResponse reports the date-derived contest status
type ContestStatusResponse struct {
	ContestID int    `json:"contest_id"`
	Status    string `json:"status"`
}

// PaymentResponse confirms a settled final-stage payment
type PaymentResponse struct {
	Record *models.PaymentRecord `json:"payment"`
}
