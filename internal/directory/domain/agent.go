// Package domain defines the agent directory's core types. Agents are owned
// and mutated by the directory; the matching core reads them as a snapshot
// and only ever touches the open-lead counter (on acceptance).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Tier classifies an agent's performance/capacity band.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// PerformanceBonus returns the flat score bonus for the tier.
func (t Tier) PerformanceBonus() float64 {
	switch t {
	case TierSilver:
		return 5
	case TierGold:
		return 10
	case TierPlatinum:
		return 15
	default:
		return 0
	}
}

// Valid reports whether the tier is one of the known bands.
func (t Tier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// Territory describes where (and for what) an agent may take leads.
// A lead matches a territory when it is geographically contained
// (country/state/city), within the radius of the agent's home coordinates,
// or when the lead's category is one of the territory's categories.
type Territory struct {
	Country   string
	State     string
	City      string
	Latitude  *float64
	Longitude *float64
	RadiusKm  float64
	// Categories grants a category-scoped territory independent of geography.
	Categories []string
	// Exclusive marks a protected territory; exclusivity adds a scoring bonus.
	Exclusive bool
}

// Stats carries the historical performance figures used by the scoring engine.
type Stats struct {
	ConversionRate     float64 // 0..1
	Satisfaction       float64 // 0..1
	AvgRating          float64 // 0..5
	AvgResponseMinutes float64 // 0 = no history
	YearsExperience    float64
	ClosedDeals        int
}

// Agent is a directory entry for one independent sales agent.
type Agent struct {
	ID              uuid.UUID
	Name            string
	ContactEmail    string
	ContactPhone    string
	Active          bool
	Verified        bool
	Tier            Tier
	Territory       Territory
	Expertise       []string // lead categories the agent works
	Specializations []string // value-tier specializations, e.g. "high_value"
	Certifications  []string
	Stats           Stats
	OpenLeads       int // accepted but not yet closed
	JoinedAt        time.Time
	LastActiveAt    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasExpertise reports whether the agent works the given lead category.
func (a Agent) HasExpertise(category string) bool {
	for _, c := range a.Expertise {
		if c == category {
			return true
		}
	}
	return false
}

// HasSpecialization reports whether the agent carries the given specialization.
func (a Agent) HasSpecialization(spec string) bool {
	for _, s := range a.Specializations {
		if s == spec {
			return true
		}
	}
	return false
}

// RemainingCapacity returns how many more leads the agent can accept given
// the tier capacity limit.
func (a Agent) RemainingCapacity(tierCapacity int) int {
	remaining := tierCapacity - a.OpenLeads
	if remaining < 0 {
		return 0
	}
	return remaining
}
