// Package transport defines the assignment module's request and response shapes.
package transport

import (
	"time"

	"leadrouter_backend/internal/assignments/domain"

	"github.com/google/uuid"
)

// DeclineRequest optionally carries the agent's reason.
type DeclineRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AssignmentResponse is the authenticated API view of an assignment.
type AssignmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	LeadID        uuid.UUID  `json:"leadId"`
	AgentID       uuid.UUID  `json:"agentId"`
	Rank          string     `json:"rank"`
	Score         float64    `json:"score"`
	Reasons       []string   `json:"reasons,omitempty"`
	Status        string     `json:"status"`
	OfferedAt     time.Time  `json:"offeredAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	RespondedAt   *time.Time `json:"respondedAt,omitempty"`
	DeclineReason *string    `json:"declineReason,omitempty"`
}

// PublicOfferResponse is the token-scoped view shown to the agent. It omits
// internal routing detail such as score and rank.
type PublicOfferResponse struct {
	LeadID    uuid.UUID  `json:"leadId"`
	Status    string     `json:"status"`
	OfferedAt time.Time  `json:"offeredAt"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Responded *time.Time `json:"respondedAt,omitempty"`
}

// ToAssignmentResponse maps a domain assignment to its API shape.
func ToAssignmentResponse(a domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            a.ID,
		LeadID:        a.LeadID,
		AgentID:       a.AgentID,
		Rank:          string(a.Rank),
		Score:         a.Score,
		Reasons:       a.Reasons,
		Status:        string(a.Status),
		OfferedAt:     a.OfferedAt,
		ExpiresAt:     a.ExpiresAt,
		RespondedAt:   a.RespondedAt,
		DeclineReason: a.DeclineReason,
	}
}

// ToPublicOfferResponse maps an assignment to the public token view.
func ToPublicOfferResponse(a domain.Assignment) PublicOfferResponse {
	return PublicOfferResponse{
		LeadID:    a.LeadID,
		Status:    string(a.Status),
		OfferedAt: a.OfferedAt,
		ExpiresAt: a.ExpiresAt,
		Responded: a.RespondedAt,
	}
}
