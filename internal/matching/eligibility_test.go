package matching

import (
	"testing"
	"time"

	directorydomain "leadrouter_backend/internal/directory/domain"
	leadsdomain "leadrouter_backend/internal/leads/domain"

	"github.com/google/uuid"
)

type testCapacities map[string]int

func (t testCapacities) GetTierCapacity(tier string) int {
	if c, ok := t[tier]; ok {
		return c
	}
	return 3
}

var defaultCapacities = testCapacities{
	"bronze":   3,
	"silver":   5,
	"gold":     8,
	"platinum": 12,
}

func ptr(v float64) *float64 { return &v }

func baseAgent() directorydomain.Agent {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return directorydomain.Agent{
		ID:       uuid.New(),
		Name:     "Test Agent",
		Active:   true,
		Verified: true,
		Tier:     directorydomain.TierSilver,
		Territory: directorydomain.Territory{
			Country: "US",
			State:   "CA",
		},
		Expertise:    []string{"produce"},
		OpenLeads:    0,
		JoinedAt:     now.AddDate(-2, 0, 0),
		LastActiveAt: now.Add(-2 * time.Hour),
	}
}

func baseLead() leadsdomain.Lead {
	return leadsdomain.Lead{
		ID:       uuid.New(),
		Category: "produce",
		Geography: leadsdomain.Geography{
			Country: "US",
			State:   "CA",
			City:    "Fresno",
		},
		ValueCents: 10_000_00,
		Status:     leadsdomain.StatusPending,
	}
}

func filterParams(now time.Time) FilterParams {
	return FilterParams{
		Capacities:    defaultCapacities,
		RecencyWindow: 48 * time.Hour,
		Now:           now,
	}
}

func TestFilterRejections(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	lead := baseLead()

	tests := []struct {
		name   string
		mutate func(*directorydomain.Agent)
		reason string
	}{
		{"inactive", func(a *directorydomain.Agent) { a.Active = false }, RejectInactive},
		{"unverified", func(a *directorydomain.Agent) { a.Verified = false }, RejectUnverified},
		{"wrong country", func(a *directorydomain.Agent) { a.Territory.Country = "DE" }, RejectTerritory},
		{"wrong state", func(a *directorydomain.Agent) { a.Territory.State = "TX" }, RejectTerritory},
		{"at capacity", func(a *directorydomain.Agent) { a.OpenLeads = 5 }, RejectAtCapacity},
		{"over capacity", func(a *directorydomain.Agent) { a.OpenLeads = 9 }, RejectAtCapacity},
		{"stale", func(a *directorydomain.Agent) { a.LastActiveAt = now.Add(-49 * time.Hour) }, RejectStaleAgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := baseAgent()
			tt.mutate(&agent)

			eligible, rejections := Filter(lead, []directorydomain.Agent{agent}, filterParams(now))
			if len(eligible) != 0 {
				t.Fatalf("expected agent to be filtered out")
			}
			if len(rejections) != 1 || rejections[0].Reason != tt.reason {
				t.Errorf("got rejections %v, want reason %s", rejections, tt.reason)
			}
		})
	}
}

func TestFilterPassesEligibleAgent(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	agent := baseAgent()

	eligible, rejections := Filter(baseLead(), []directorydomain.Agent{agent}, filterParams(now))
	if len(eligible) != 1 {
		t.Fatalf("expected 1 eligible agent, got %d (rejections: %v)", len(eligible), rejections)
	}
}

func TestFilterRecencyBoundaryInclusive(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	agent := baseAgent()
	agent.LastActiveAt = now.Add(-48 * time.Hour)

	eligible, _ := Filter(baseLead(), []directorydomain.Agent{agent}, filterParams(now))
	if len(eligible) != 1 {
		t.Fatalf("agent exactly at the recency window edge must remain eligible")
	}
}

func TestTerritoryCovers(t *testing.T) {
	lead := baseLead()
	lead.Geography.Latitude = ptr(36.7378)
	lead.Geography.Longitude = ptr(-119.7871)

	tests := []struct {
		name      string
		territory directorydomain.Territory
		want      bool
	}{
		{
			"country-wide territory contains any state",
			directorydomain.Territory{Country: "US"},
			true,
		},
		{
			"city territory requires city match",
			directorydomain.Territory{Country: "US", State: "CA", City: "Sacramento"},
			false,
		},
		{
			"case-insensitive containment",
			directorydomain.Territory{Country: "us", State: "ca", City: "FRESNO"},
			true,
		},
		{
			// Bakersfield to Fresno is roughly 175 km.
			"radius reaches the lead",
			directorydomain.Territory{Latitude: ptr(35.3733), Longitude: ptr(-119.0187), RadiusKm: 200},
			true,
		},
		{
			"radius too small",
			directorydomain.Territory{Latitude: ptr(35.3733), Longitude: ptr(-119.0187), RadiusKm: 100},
			false,
		},
		{
			// The home country on the territory does not gate the distance
			// check, so a radius can reach across a border.
			"radius reaches across a country border",
			directorydomain.Territory{Country: "MX", Latitude: ptr(35.3733), Longitude: ptr(-119.0187), RadiusKm: 200},
			true,
		},
		{
			"category grant ignores geography",
			directorydomain.Territory{Country: "DE", Categories: []string{"produce"}},
			true,
		},
		{
			"empty territory covers nothing",
			directorydomain.Territory{},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TerritoryCovers(tt.territory, lead); got != tt.want {
				t.Errorf("TerritoryCovers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceKm(t *testing.T) {
	// Amsterdam to Paris, roughly 430 km.
	d := distanceKm(52.3676, 4.9041, 48.8566, 2.3522)
	if d < 400 || d > 460 {
		t.Errorf("distanceKm Amsterdam-Paris = %.1f, want ~430", d)
	}

	if d := distanceKm(52.0, 4.0, 52.0, 4.0); d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}
