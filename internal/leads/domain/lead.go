// Package domain defines the lead lifecycle types and the legal status
// transitions driven by the assignment orchestrator.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lead's lifecycle state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAssigned    Status = "assigned"
	StatusInProgress  Status = "in_progress"
	StatusNeedsReview Status = "needs_review"
	StatusClosedWon   Status = "closed_won"
	StatusClosedLost  Status = "closed_lost"
	StatusExpired     Status = "expired"
	StatusCancelled   Status = "cancelled"
)

// Urgency is the lead's priority tier as supplied by the lead source.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// Value tiers used for specialization alignment in scoring.
const (
	ValueTierStandard = "standard"
	ValueTierHigh     = "high_value"
	ValueTierPremium  = "premium"
)

const (
	highValueThresholdCents = 50_000_00
	premiumThresholdCents   = 250_000_00
)

// Geography locates a lead for territory matching.
type Geography struct {
	Country   string
	State     string
	City      string
	Latitude  *float64
	Longitude *float64
}

// Lead is one buyer request to be matched with an agent. Leads are created
// from an external request record and never deleted, only archived.
type Lead struct {
	ID             uuid.UUID
	Category       string
	Geography      Geography
	ValueCents     int64
	Urgency        Urgency
	Specifications []string
	Status         Status
	ActiveAgentID  *uuid.UUID
	ReviewReason   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ValueTier buckets the lead's estimated value for specialization matching.
func (l Lead) ValueTier() string {
	switch {
	case l.ValueCents >= premiumThresholdCents:
		return ValueTierPremium
	case l.ValueCents >= highValueThresholdCents:
		return ValueTierHigh
	default:
		return ValueTierStandard
	}
}

// Terminal reports whether the status ends the routing lifecycle.
// needs_review is deliberately not terminal: an operator can re-trigger
// matching from it.
func (s Status) Terminal() bool {
	switch s {
	case StatusClosedWon, StatusClosedLost, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// legalTransitions captures the routing-relevant subset of the lead state
// machine. Terminal business outcomes (closed_won etc.) are reachable only
// from in_progress.
var legalTransitions = map[Status][]Status{
	StatusPending:     {StatusAssigned, StatusNeedsReview, StatusCancelled},
	StatusAssigned:    {StatusInProgress, StatusNeedsReview, StatusCancelled},
	StatusInProgress:  {StatusClosedWon, StatusClosedLost, StatusNeedsReview, StatusCancelled},
	StatusNeedsReview: {StatusAssigned, StatusCancelled, StatusExpired},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
