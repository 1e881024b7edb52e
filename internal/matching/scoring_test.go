package matching

import (
	"testing"
	"time"

	directorydomain "leadrouter_backend/internal/directory/domain"
)

func scoreParams(now time.Time) ScoreParams {
	return ScoreParams{
		Capacities:    defaultCapacities,
		RecencyWindow: 48 * time.Hour,
		Now:           now,
	}
}

func TestScoreExpertise(t *testing.T) {
	lead := baseLead()
	lead.ValueCents = 60_000_00 // high_value tier

	agent := baseAgent()
	agent.Specializations = []string{"high_value"}
	agent.Certifications = []string{"organic", "cold-chain", "export", "haccp"}

	// 60 category + 25 specialization + cert bonus capped at 15.
	if got := scoreExpertise(lead, agent); got != 100 {
		t.Errorf("scoreExpertise = %v, want 100", got)
	}

	agent.Expertise = nil
	agent.Specializations = nil
	agent.Certifications = []string{"organic"}
	if got := scoreExpertise(lead, agent); got != 5 {
		t.Errorf("scoreExpertise without category match = %v, want 5", got)
	}
}

func TestScoreTerritoryStacksAndCaps(t *testing.T) {
	lead := baseLead()
	lead.Geography.Latitude = ptr(36.7378)
	lead.Geography.Longitude = ptr(-119.7871)

	agent := baseAgent()
	agent.Territory = directorydomain.Territory{
		Country:    "US",
		State:      "CA",
		City:       "Fresno",
		Latitude:   ptr(36.7378),
		Longitude:  ptr(-119.7871),
		RadiusKm:   50,
		Categories: []string{"produce"},
		Exclusive:  true,
	}

	// 40+25+15 containment, +30 radius, +20 category, +10 exclusive = 140, capped.
	if got := scoreTerritory(lead, agent); got != 100 {
		t.Errorf("scoreTerritory = %v, want 100 (capped)", got)
	}

	agent.Territory = directorydomain.Territory{Country: "US"}
	if got := scoreTerritory(lead, agent); got != 40 {
		t.Errorf("country-only territory = %v, want 40", got)
	}
}

func TestScorePerformance(t *testing.T) {
	agent := baseAgent()
	agent.Tier = directorydomain.TierGold
	agent.Stats = directorydomain.Stats{
		ConversionRate: 0.40,
		Satisfaction:   0.90,
		AvgRating:      4.5,
	}

	// 0.40*35 + 0.90*25 + (4.5/5)*25 + 10 = 14 + 22.5 + 22.5 + 10 = 69
	if got := scorePerformance(agent); got != 69 {
		t.Errorf("scorePerformance = %v, want 69", got)
	}
}

func TestScoreAvailability(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	agent := baseAgent()
	agent.Tier = directorydomain.TierGold // capacity 8
	agent.OpenLeads = 4
	agent.LastActiveAt = now.Add(-30 * time.Minute)

	// 4/8 remaining * 70 = 35, plus 30 for activity within the hour.
	if got := scoreAvailability(agent, scoreParams(now)); got != 65 {
		t.Errorf("scoreAvailability = %v, want 65", got)
	}

	agent.OpenLeads = 8
	agent.LastActiveAt = now.Add(-40 * time.Hour)
	if got := scoreAvailability(agent, scoreParams(now)); got != 5 {
		t.Errorf("scoreAvailability at capacity, barely recent = %v, want 5", got)
	}
}

func TestScoreResponseTimeSteps(t *testing.T) {
	tests := []struct {
		minutes float64
		want    float64
	}{
		{0, 50}, // no history
		{5, 100},
		{12, 85},
		{30, 70},
		{45, 50},
		{120, 30},
		{300, 10},
	}

	for _, tt := range tests {
		agent := baseAgent()
		agent.Stats.AvgResponseMinutes = tt.minutes
		if got := scoreResponseTime(agent); got != tt.want {
			t.Errorf("scoreResponseTime(%v) = %v, want %v", tt.minutes, got, tt.want)
		}
	}
}

func TestScoreAgentDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	lead := baseLead()
	agent := baseAgent()
	agent.Stats = directorydomain.Stats{
		ConversionRate:     0.3,
		Satisfaction:       0.8,
		AvgRating:          4.0,
		AvgResponseMinutes: 20,
		YearsExperience:    5,
		ClosedDeals:        40,
	}

	first := ScoreAgent(lead, agent, scoreParams(now))
	for i := 0; i < 10; i++ {
		if got := ScoreAgent(lead, agent, scoreParams(now)); got.Total != first.Total {
			t.Fatalf("score changed between identical runs: %v vs %v", got.Total, first.Total)
		}
	}

	if first.Total < 0 || first.Total > 100 {
		t.Errorf("total %v out of range", first.Total)
	}
}
