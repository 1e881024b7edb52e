package domain

import (
	"testing"
	"time"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusAccepted, StatusDeclined, StatusExpired, StatusSuperseded}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	if StatusOffered.Terminal() {
		t.Error("offered must not be terminal")
	}
	if Status("bogus").Valid() {
		t.Error("unknown status must not be valid")
	}
}

func TestRankForPosition(t *testing.T) {
	cases := []struct {
		pos  int
		want Rank
	}{
		{0, RankPrimary},
		{1, RankSecondary},
		{2, RankBackup},
		{7, RankBackup},
	}
	for _, tc := range cases {
		if got := RankForPosition(tc.pos); got != tc.want {
			t.Errorf("position %d: got %s, want %s", tc.pos, got, tc.want)
		}
	}
}

func TestOverdue(t *testing.T) {
	expiry := time.Date(2026, 8, 20, 13, 0, 0, 0, time.UTC)
	offer := Assignment{Status: StatusOffered, ExpiresAt: expiry}

	if offer.Overdue(expiry.Add(-time.Second)) {
		t.Error("offer inside the window must not be overdue")
	}
	// The window closes exactly at the expiry instant.
	if !offer.Overdue(expiry) {
		t.Error("offer at the expiry instant must be overdue")
	}
	if !offer.Overdue(expiry.Add(time.Hour)) {
		t.Error("offer past the window must be overdue")
	}

	resolved := Assignment{Status: StatusAccepted, ExpiresAt: expiry}
	if resolved.Overdue(expiry.Add(time.Hour)) {
		t.Error("resolved offers never become overdue")
	}
}
