// Package matching holds the pure matching core: hard eligibility filtering,
// weighted scoring, and deterministic ranking over an agent snapshot. Nothing
// in this package touches the database or the clock directly; callers pass
// the snapshot, the reference time, and the tuning knobs in.
package matching

import (
	"strings"
	"time"

	directorydomain "leadrouter_backend/internal/directory/domain"
	leadsdomain "leadrouter_backend/internal/leads/domain"
)

// TierCapacities resolves the open-lead limit for an agent tier.
type TierCapacities interface {
	GetTierCapacity(tier string) int
}

// Rejection explains why one agent failed the hard filter. Collected for
// audit trails and the needs-review diagnosis when nobody qualifies.
type Rejection struct {
	AgentID string
	Reason  string
}

const (
	RejectInactive    = "agent_inactive"
	RejectUnverified  = "agent_unverified"
	RejectTerritory   = "territory_mismatch"
	RejectAtCapacity  = "at_capacity"
	RejectStaleAgent  = "inactive_beyond_recency_window"
)

// FilterParams carries the knobs the hard filter needs.
type FilterParams struct {
	Capacities    TierCapacities
	RecencyWindow time.Duration
	// Now anchors the recency check. Callers pass the matching run's start
	// so a re-run over the same snapshot yields the same result.
	Now time.Time
}

// Filter applies the hard eligibility rules in order and returns the agents
// that pass, plus a rejection record for each agent that does not. Every rule
// must pass; there is no partial credit at this stage.
func Filter(lead leadsdomain.Lead, agents []directorydomain.Agent, params FilterParams) ([]directorydomain.Agent, []Rejection) {
	eligible := make([]directorydomain.Agent, 0, len(agents))
	var rejections []Rejection

	for _, agent := range agents {
		if reason := disqualify(lead, agent, params); reason != "" {
			rejections = append(rejections, Rejection{AgentID: agent.ID.String(), Reason: reason})
			continue
		}
		eligible = append(eligible, agent)
	}

	return eligible, rejections
}

func disqualify(lead leadsdomain.Lead, agent directorydomain.Agent, params FilterParams) string {
	if !agent.Active {
		return RejectInactive
	}
	if !agent.Verified {
		return RejectUnverified
	}
	if !TerritoryCovers(agent.Territory, lead) {
		return RejectTerritory
	}
	if agent.RemainingCapacity(params.Capacities.GetTierCapacity(string(agent.Tier))) == 0 {
		return RejectAtCapacity
	}
	if params.Now.Sub(agent.LastActiveAt) > params.RecencyWindow {
		return RejectStaleAgent
	}
	return ""
}

// TerritoryCovers reports whether the agent's territory reaches the lead.
// Any one of three grounds suffices: geographic containment, radius from the
// agent's home coordinates, or a category-scoped territory grant.
func TerritoryCovers(t directorydomain.Territory, lead leadsdomain.Lead) bool {
	if containsGeography(t, lead.Geography) {
		return true
	}
	if withinRadius(t, lead.Geography) {
		return true
	}
	return coversCategory(t, lead.Category)
}

// containsGeography checks country/state/city containment. An empty field on
// the territory side means "whole parent region"; a more specific territory
// requires the lead to match each populated level.
func containsGeography(t directorydomain.Territory, g leadsdomain.Geography) bool {
	if t.Country == "" {
		return false
	}
	if !strings.EqualFold(t.Country, g.Country) {
		return false
	}
	if t.State != "" && !strings.EqualFold(t.State, g.State) {
		return false
	}
	if t.City != "" && !strings.EqualFold(t.City, g.City) {
		return false
	}
	return true
}

func withinRadius(t directorydomain.Territory, g leadsdomain.Geography) bool {
	if t.RadiusKm <= 0 || t.Latitude == nil || t.Longitude == nil {
		return false
	}
	if g.Latitude == nil || g.Longitude == nil {
		return false
	}
	return distanceKm(*t.Latitude, *t.Longitude, *g.Latitude, *g.Longitude) <= t.RadiusKm
}

func coversCategory(t directorydomain.Territory, category string) bool {
	for _, c := range t.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}
