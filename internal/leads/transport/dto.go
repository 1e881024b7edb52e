// Package transport defines the lead module's request and response shapes.
package transport

import (
	"time"

	"leadrouter_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// CreateLeadRequest is the intake payload for a new lead.
type CreateLeadRequest struct {
	Category       string   `json:"category" validate:"required,min=2,max=100"`
	Country        string   `json:"country" validate:"required,len=2"`
	State          string   `json:"state" validate:"max=100"`
	City           string   `json:"city" validate:"max=100"`
	Latitude       *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude      *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	ValueCents     int64    `json:"valueCents" validate:"min=0"`
	Urgency        string   `json:"urgency" validate:"omitempty,oneof=low medium high urgent"`
	Specifications []string `json:"specifications" validate:"max=50,dive,max=200"`
}

// RematchRequest is the operator re-entry payload. Empty for now; kept as a
// struct so a future note field does not change the endpoint shape.
type RematchRequest struct{}

// LeadResponse is the API view of a lead.
type LeadResponse struct {
	ID             uuid.UUID  `json:"id"`
	Category       string     `json:"category"`
	Country        string     `json:"country"`
	State          string     `json:"state,omitempty"`
	City           string     `json:"city,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	ValueCents     int64      `json:"valueCents"`
	ValueTier      string     `json:"valueTier"`
	Urgency        string     `json:"urgency,omitempty"`
	Specifications []string   `json:"specifications,omitempty"`
	Status         string     `json:"status"`
	ActiveAgentID  *uuid.UUID `json:"activeAgentId,omitempty"`
	ReviewReason   *string    `json:"reviewReason,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ListLeadsResponse is one page of leads.
type ListLeadsResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// ToLeadResponse maps a domain lead to its API shape.
func ToLeadResponse(l domain.Lead) LeadResponse {
	return LeadResponse{
		ID:             l.ID,
		Category:       l.Category,
		Country:        l.Geography.Country,
		State:          l.Geography.State,
		City:           l.Geography.City,
		Latitude:       l.Geography.Latitude,
		Longitude:      l.Geography.Longitude,
		ValueCents:     l.ValueCents,
		ValueTier:      l.ValueTier(),
		Urgency:        string(l.Urgency),
		Specifications: l.Specifications,
		Status:         string(l.Status),
		ActiveAgentID:  l.ActiveAgentID,
		ReviewReason:   l.ReviewReason,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}
