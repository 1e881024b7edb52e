package matching

import (
	"fmt"
	"math"
	"time"

	directorydomain "leadrouter_backend/internal/directory/domain"
	leadsdomain "leadrouter_backend/internal/leads/domain"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing weights or sub-score formulas.
	scoreVersion = "2026-v1"

	// Sub-score weights. These sum to 1.0 so the final score stays in 0-100.
	weightExpertise    = 0.25
	weightTerritory    = 0.20
	weightPerformance  = 0.20
	weightAvailability = 0.15
	weightExperience   = 0.10
	weightResponseTime = 0.10
)

// Score is a scored agent for one lead, with the sub-scores that produced it.
type Score struct {
	AgentID string
	Total   float64
	Factors Factors
	Reasons []string
}

// Factors holds the six weighted sub-scores, each already capped at 0-100.
type Factors struct {
	Expertise    float64
	Territory    float64
	Performance  float64
	Availability float64
	Experience   float64
	ResponseTime float64
}

// ScoreParams carries the knobs the scoring pass needs. Now must be the same
// reference time used by the eligibility filter so a run is reproducible.
type ScoreParams struct {
	Capacities    TierCapacities
	RecencyWindow time.Duration
	Now           time.Time
}

// Version returns the current scoring model identifier.
func Version() string { return scoreVersion }

// ScoreAgent computes the weighted composite score for one eligible agent.
// The result is deterministic for a given lead, agent snapshot, and params.
func ScoreAgent(lead leadsdomain.Lead, agent directorydomain.Agent, params ScoreParams) Score {
	f := Factors{
		Expertise:    scoreExpertise(lead, agent),
		Territory:    scoreTerritory(lead, agent),
		Performance:  scorePerformance(agent),
		Availability: scoreAvailability(agent, params),
		Experience:   scoreExperience(agent),
		ResponseTime: scoreResponseTime(agent),
	}

	total := f.Expertise*weightExpertise +
		f.Territory*weightTerritory +
		f.Performance*weightPerformance +
		f.Availability*weightAvailability +
		f.Experience*weightExperience +
		f.ResponseTime*weightResponseTime

	return Score{
		AgentID: agent.ID.String(),
		Total:   round2(total),
		Factors: f,
		Reasons: buildReasons(lead, agent, f),
	}
}

// scoreExpertise rewards category match, value-tier specialization alignment,
// and certifications.
func scoreExpertise(lead leadsdomain.Lead, agent directorydomain.Agent) float64 {
	score := 0.0
	if agent.HasExpertise(lead.Category) {
		score += 60
	}
	if agent.HasSpecialization(lead.ValueTier()) {
		score += 25
	}
	certBonus := float64(len(agent.Certifications)) * 5
	if certBonus > 15 {
		certBonus = 15
	}
	score += certBonus
	return clampScore(score)
}

// scoreTerritory rewards tighter geographic fit. Containment levels stack
// (country, then state, then city); radius and category grants score on top,
// and an exclusive territory adds a flat bonus.
func scoreTerritory(lead leadsdomain.Lead, agent directorydomain.Agent) float64 {
	t := agent.Territory
	score := 0.0

	if containsGeography(t, lead.Geography) {
		score += 40
		if t.State != "" {
			score += 25
		}
		if t.City != "" {
			score += 15
		}
	}
	if withinRadius(t, lead.Geography) {
		score += 30
	}
	if coversCategory(t, lead.Category) {
		score += 20
	}
	if t.Exclusive {
		score += 10
	}

	return clampScore(score)
}

// scorePerformance blends historical conversion, satisfaction, and rating,
// plus the flat tier bonus.
func scorePerformance(agent directorydomain.Agent) float64 {
	s := agent.Stats
	score := s.ConversionRate*35 +
		s.Satisfaction*25 +
		(s.AvgRating/5)*25 +
		agent.Tier.PerformanceBonus()
	return clampScore(score)
}

// scoreAvailability rewards spare capacity and recent activity. Capacity
// contributes proportionally; recency contributes in steps so small clock
// differences do not reorder agents.
func scoreAvailability(agent directorydomain.Agent, params ScoreParams) float64 {
	capacity := params.Capacities.GetTierCapacity(string(agent.Tier))
	score := 0.0
	if capacity > 0 {
		score += float64(agent.RemainingCapacity(capacity)) / float64(capacity) * 70
	}

	idle := params.Now.Sub(agent.LastActiveAt)
	switch {
	case idle <= time.Hour:
		score += 30
	case idle <= 6*time.Hour:
		score += 20
	case idle <= 24*time.Hour:
		score += 10
	case idle <= params.RecencyWindow:
		score += 5
	}

	return clampScore(score)
}

// scoreExperience rewards tenure and closed deal volume.
func scoreExperience(agent directorydomain.Agent) float64 {
	score := agent.Stats.YearsExperience*6 + float64(agent.Stats.ClosedDeals)*0.4
	return clampScore(score)
}

// scoreResponseTime maps the agent's average first-response latency onto a
// stepped scale. Agents with no response history land in the middle rather
// than being penalized or favored.
func scoreResponseTime(agent directorydomain.Agent) float64 {
	minutes := agent.Stats.AvgResponseMinutes
	if minutes <= 0 {
		return 50
	}
	switch {
	case minutes <= 5:
		return 100
	case minutes <= 15:
		return 85
	case minutes <= 30:
		return 70
	case minutes <= 60:
		return 50
	case minutes <= 120:
		return 30
	default:
		return 10
	}
}

// buildReasons produces the short human-readable explanation stored with the
// assignment for audit purposes.
func buildReasons(lead leadsdomain.Lead, agent directorydomain.Agent, f Factors) []string {
	reasons := make([]string, 0, 4)
	if agent.HasExpertise(lead.Category) {
		reasons = append(reasons, fmt.Sprintf("expertise match: %s", lead.Category))
	}
	if agent.HasSpecialization(lead.ValueTier()) {
		reasons = append(reasons, fmt.Sprintf("specialization: %s", lead.ValueTier()))
	}
	if f.Territory >= 40 {
		reasons = append(reasons, "strong territory fit")
	}
	if f.Performance >= 70 {
		reasons = append(reasons, fmt.Sprintf("high performance (%s tier)", agent.Tier))
	}
	if f.ResponseTime >= 85 {
		reasons = append(reasons, "fast responder")
	}
	return reasons
}

func clampScore(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
