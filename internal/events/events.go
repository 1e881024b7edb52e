// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"leadrouter_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the routing pipeline.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	Category   string    `json:"category"`
	Country    string    `json:"country"`
	ValueCents int64     `json:"valueCents"`
	Urgency    string    `json:"urgency"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadAssigned is published when an agent accepts an offer and the lead
// moves to in_progress.
type LeadAssigned struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	AgentID uuid.UUID `json:"agentId"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// LeadNeedsReview is published when offers are exhausted without an
// acceptance, or when matching found no eligible agents at all.
type LeadNeedsReview struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Reason string    `json:"reason"`
}

func (e LeadNeedsReview) EventName() string { return "leads.needs_review" }

// =============================================================================
// Assignment Offer Events
// =============================================================================

// OfferCreated is published when an offer is extended to an agent.
type OfferCreated struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	AgentID      uuid.UUID `json:"agentId"`
	Rank         string    `json:"rank"`
	Score        float64   `json:"score"`
	ExpiresAt    time.Time `json:"expiresAt"`
	PublicToken  string    `json:"publicToken"`
}

func (e OfferCreated) EventName() string { return "assignments.offer.created" }

// OfferAccepted is published when an agent accepts an offer.
type OfferAccepted struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	AgentID      uuid.UUID `json:"agentId"`
}

func (e OfferAccepted) EventName() string { return "assignments.offer.accepted" }

// OfferDeclined is published when an agent declines an offer.
type OfferDeclined struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	AgentID      uuid.UUID `json:"agentId"`
	Reason       string    `json:"reason,omitempty"`
}

func (e OfferDeclined) EventName() string { return "assignments.offer.declined" }

// OfferExpired is published when an offer's response window elapses without
// a response.
type OfferExpired struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	AgentID      uuid.UUID `json:"agentId"`
}

func (e OfferExpired) EventName() string { return "assignments.offer.expired" }

// OfferSuperseded is published for each sibling offer closed out after a
// competing agent accepted.
type OfferSuperseded struct {
	BaseEvent
	AssignmentID uuid.UUID `json:"assignmentId"`
	LeadID       uuid.UUID `json:"leadId"`
	AgentID      uuid.UUID `json:"agentId"`
	AcceptedBy   uuid.UUID `json:"acceptedBy"`
}

func (e OfferSuperseded) EventName() string { return "assignments.offer.superseded" }
