package matching

import (
	"testing"
	"time"

	directorydomain "leadrouter_backend/internal/directory/domain"

	"github.com/google/uuid"
)

// A well-matched gold agent in the lead's territory must outrank a bronze
// agent on another continent with no category overlap, regardless of how the
// weights are tuned.
func TestRankStrongMatchBeatsWeakMatch(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	lead := baseLead() // produce, US/CA/Fresno

	strong := baseAgent()
	strong.Tier = directorydomain.TierGold
	strong.Territory = directorydomain.Territory{Country: "US", State: "CA"}
	strong.Expertise = []string{"produce"}
	strong.Stats = directorydomain.Stats{
		ConversionRate:     0.45,
		Satisfaction:       0.9,
		AvgRating:          4.6,
		AvgResponseMinutes: 10,
		YearsExperience:    8,
		ClosedDeals:        120,
	}
	strong.LastActiveAt = now.Add(-15 * time.Minute)

	// Weak agent only qualifies via a category territory grant; everything
	// else about the match is poor.
	weak := baseAgent()
	weak.Tier = directorydomain.TierBronze
	weak.Territory = directorydomain.Territory{Country: "DE", Categories: []string{"produce"}}
	weak.Expertise = []string{"machinery"}
	weak.Stats = directorydomain.Stats{
		ConversionRate:     0.05,
		Satisfaction:       0.4,
		AvgRating:          2.5,
		AvgResponseMinutes: 180,
	}
	weak.LastActiveAt = now.Add(-40 * time.Hour)

	scores, rejections := Rank(lead, []directorydomain.Agent{weak, strong}, scoreParams(now))
	if len(rejections) != 0 {
		t.Fatalf("unexpected rejections: %v", rejections)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].AgentID != strong.ID.String() {
		t.Errorf("expected strong agent first, got %s", scores[0].AgentID)
	}
	if scores[0].Total <= scores[1].Total {
		t.Errorf("strong %.2f must exceed weak %.2f", scores[0].Total, scores[1].Total)
	}
}

func TestRankTieBreaksOnTenureThenID(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	lead := baseLead()

	older := baseAgent()
	older.ID = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000000")
	older.JoinedAt = now.AddDate(-5, 0, 0)

	newer := baseAgent()
	newer.ID = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000000")
	newer.JoinedAt = now.AddDate(-1, 0, 0)
	newer.Stats = older.Stats
	newer.LastActiveAt = older.LastActiveAt

	scores, _ := Rank(lead, []directorydomain.Agent{newer, older}, scoreParams(now))
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].Total != scores[1].Total {
		t.Fatalf("setup error: scores differ (%v vs %v)", scores[0].Total, scores[1].Total)
	}
	if scores[0].AgentID != older.ID.String() {
		t.Errorf("tie must break on longer tenure, got %s first", scores[0].AgentID)
	}

	// Same tenure falls through to the ID tiebreak.
	newer.JoinedAt = older.JoinedAt
	scores, _ = Rank(lead, []directorydomain.Agent{older, newer}, scoreParams(now))
	if scores[0].AgentID != newer.ID.String() {
		t.Errorf("equal tenure must break on lowest ID, got %s first", scores[0].AgentID)
	}
}

func TestRankStableAcrossInputOrder(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	lead := baseLead()

	agents := make([]directorydomain.Agent, 0, 6)
	for i := 0; i < 6; i++ {
		a := baseAgent()
		a.Stats.ClosedDeals = i * 10
		a.Stats.AvgRating = 3 + float64(i)*0.3
		agents = append(agents, a)
	}

	forward, _ := Rank(lead, agents, scoreParams(now))

	reversed := make([]directorydomain.Agent, len(agents))
	for i, a := range agents {
		reversed[len(agents)-1-i] = a
	}
	backward, _ := Rank(lead, reversed, scoreParams(now))

	for i := range forward {
		if forward[i].AgentID != backward[i].AgentID {
			t.Fatalf("ordering depends on input order at position %d", i)
		}
	}
}
