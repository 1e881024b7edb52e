// Package transport defines the directory module's request and response shapes.
package transport

import (
	"time"

	"leadrouter_backend/internal/directory/domain"

	"github.com/google/uuid"
)

// TerritoryPayload is the territory block shared by create and update.
type TerritoryPayload struct {
	Country    string   `json:"country" validate:"required,len=2"`
	State      string   `json:"state" validate:"max=100"`
	City       string   `json:"city" validate:"max=100"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	RadiusKm   float64  `json:"radiusKm" validate:"min=0,max=20000"`
	Categories []string `json:"categories" validate:"max=50,dive,max=100"`
	Exclusive  bool     `json:"exclusive"`
}

// StatsPayload carries the agent's performance figures.
type StatsPayload struct {
	ConversionRate     float64 `json:"conversionRate" validate:"min=0,max=1"`
	Satisfaction       float64 `json:"satisfaction" validate:"min=0,max=1"`
	AvgRating          float64 `json:"avgRating" validate:"min=0,max=5"`
	AvgResponseMinutes float64 `json:"avgResponseMinutes" validate:"min=0"`
	YearsExperience    float64 `json:"yearsExperience" validate:"min=0,max=80"`
	ClosedDeals        int     `json:"closedDeals" validate:"min=0"`
}

// UpsertAgentRequest creates or updates an agent profile.
type UpsertAgentRequest struct {
	Name            string           `json:"name" validate:"required,min=2,max=200"`
	ContactEmail    string           `json:"contactEmail" validate:"required,email"`
	ContactPhone    string           `json:"contactPhone" validate:"max=32"`
	Active          bool             `json:"active"`
	Verified        bool             `json:"verified"`
	Tier            string           `json:"tier" validate:"required,oneof=bronze silver gold platinum"`
	Territory       TerritoryPayload `json:"territory" validate:"required"`
	Expertise       []string         `json:"expertise" validate:"max=50,dive,max=100"`
	Specializations []string         `json:"specializations" validate:"max=20,dive,max=100"`
	Certifications  []string         `json:"certifications" validate:"max=50,dive,max=200"`
	Stats           StatsPayload     `json:"stats"`
}

// AgentResponse is the API view of an agent.
type AgentResponse struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	ContactEmail    string           `json:"contactEmail"`
	ContactPhone    string           `json:"contactPhone,omitempty"`
	Active          bool             `json:"active"`
	Verified        bool             `json:"verified"`
	Tier            string           `json:"tier"`
	Territory       TerritoryPayload `json:"territory"`
	Expertise       []string         `json:"expertise,omitempty"`
	Specializations []string         `json:"specializations,omitempty"`
	Certifications  []string         `json:"certifications,omitempty"`
	Stats           StatsPayload     `json:"stats"`
	OpenLeads       int              `json:"openLeads"`
	JoinedAt        time.Time        `json:"joinedAt"`
	LastActiveAt    time.Time        `json:"lastActiveAt"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ToAgentResponse maps a domain agent to its API shape.
func ToAgentResponse(a domain.Agent) AgentResponse {
	return AgentResponse{
		ID:           a.ID,
		Name:         a.Name,
		ContactEmail: a.ContactEmail,
		ContactPhone: a.ContactPhone,
		Active:       a.Active,
		Verified:     a.Verified,
		Tier:         string(a.Tier),
		Territory: TerritoryPayload{
			Country:    a.Territory.Country,
			State:      a.Territory.State,
			City:       a.Territory.City,
			Latitude:   a.Territory.Latitude,
			Longitude:  a.Territory.Longitude,
			RadiusKm:   a.Territory.RadiusKm,
			Categories: a.Territory.Categories,
			Exclusive:  a.Territory.Exclusive,
		},
		Expertise:       a.Expertise,
		Specializations: a.Specializations,
		Certifications:  a.Certifications,
		Stats: StatsPayload{
			ConversionRate:     a.Stats.ConversionRate,
			Satisfaction:       a.Stats.Satisfaction,
			AvgRating:          a.Stats.AvgRating,
			AvgResponseMinutes: a.Stats.AvgResponseMinutes,
			YearsExperience:    a.Stats.YearsExperience,
			ClosedDeals:        a.Stats.ClosedDeals,
		},
		OpenLeads:    a.OpenLeads,
		JoinedAt:     a.JoinedAt,
		LastActiveAt: a.LastActiveAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
