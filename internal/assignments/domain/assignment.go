// Package domain defines the assignment offer record and its state machine.
// An assignment ties exactly one lead to exactly one agent; it is created when
// an offer is extended and moves through a single atomic status transition.
// Assignments are never deleted, only superseded.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the assignment's lifecycle state. offered is the only
// non-terminal status; every transition out of it is final.
type Status string

const (
	StatusOffered    Status = "offered"
	StatusAccepted   Status = "accepted"
	StatusDeclined   Status = "declined"
	StatusExpired    Status = "expired"
	StatusSuperseded Status = "superseded"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusDeclined, StatusExpired, StatusSuperseded:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusOffered || s.Terminal()
}

// Rank orders the offers extended for one lead.
type Rank string

const (
	RankPrimary   Rank = "primary"
	RankSecondary Rank = "secondary"
	RankBackup    Rank = "backup"
)

// RankForPosition maps a zero-based offer position to its rank.
// Positions beyond the second are all backups.
func RankForPosition(pos int) Rank {
	switch pos {
	case 0:
		return RankPrimary
	case 1:
		return RankSecondary
	default:
		return RankBackup
	}
}

// Assignment records one offer extended to one agent for one lead.
type Assignment struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	AgentID       uuid.UUID
	Rank          Rank
	Score         float64
	Reasons       []string
	Status        Status
	PublicToken   string
	OfferedAt     time.Time
	ExpiresAt     time.Time
	RespondedAt   *time.Time
	DeclineReason *string
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Overdue reports whether the offer's response window has passed.
func (a Assignment) Overdue(now time.Time) bool {
	return a.Status == StatusOffered && !now.Before(a.ExpiresAt)
}
