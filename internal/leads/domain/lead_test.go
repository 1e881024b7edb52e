package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusAssigned, true},
		{StatusPending, StatusNeedsReview, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusAssigned, StatusNeedsReview, true},
		{StatusInProgress, StatusClosedWon, true},
		{StatusInProgress, StatusClosedLost, true},
		{StatusNeedsReview, StatusAssigned, true},

		{StatusPending, StatusInProgress, false},
		{StatusInProgress, StatusAssigned, false},
		{StatusClosedWon, StatusAssigned, false},
		{StatusClosedLost, StatusInProgress, false},
		{StatusCancelled, StatusAssigned, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []Status{StatusClosedWon, StatusClosedLost, StatusExpired, StatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	// needs_review must stay re-enterable for the operator re-match hook.
	open := []Status{StatusPending, StatusAssigned, StatusInProgress, StatusNeedsReview}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestValueTier(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{10_000_00, ValueTierStandard},
		{49_999_99, ValueTierStandard},
		{50_000_00, ValueTierHigh},
		{120_000_00, ValueTierHigh},
		{250_000_00, ValueTierPremium},
	}

	for _, tt := range tests {
		l := Lead{ValueCents: tt.cents}
		if got := l.ValueTier(); got != tt.want {
			t.Errorf("ValueTier(%d) = %s, want %s", tt.cents, got, tt.want)
		}
	}
}
