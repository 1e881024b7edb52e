package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	assignmentdomain "leadrouter_backend/internal/assignments/domain"
	"leadrouter_backend/internal/assignments/lock"
	directorydomain "leadrouter_backend/internal/directory/domain"
	"leadrouter_backend/internal/events"
	leadsdomain "leadrouter_backend/internal/leads/domain"
	"leadrouter_backend/platform/apperr"
	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
)

// =============================================================================
// Fakes
// =============================================================================

// fakeStore reproduces the repository's compare-and-set semantics in memory
// so response races behave the way the database guard makes them behave.
type fakeStore struct {
	mu          sync.Mutex
	assignments map[uuid.UUID]*assignmentdomain.Assignment

	// onCreate, when set, observes the moment an offer becomes visible.
	onCreate func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{assignments: make(map[uuid.UUID]*assignmentdomain.Assignment)}
}

func (s *fakeStore) Create(_ context.Context, a assignmentdomain.Assignment) (assignmentdomain.Assignment, error) {
	if s.onCreate != nil {
		s.onCreate()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Mirrors the unique (lead_id, agent_id) index on the assignments table.
	for _, existing := range s.assignments {
		if existing.LeadID == a.LeadID && existing.AgentID == a.AgentID {
			return assignmentdomain.Assignment{}, apperr.ConcurrentModification(
				"agent already holds an assignment for this lead")
		}
	}
	a.ID = uuid.New()
	a.Status = assignmentdomain.StatusOffered
	a.Version = 1
	s.assignments[a.ID] = &a
	return a, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (assignmentdomain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return assignmentdomain.Assignment{}, apperr.NotFound("assignment not found")
	}
	return *a, nil
}

func (s *fakeStore) GetByToken(_ context.Context, token string) (assignmentdomain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.PublicToken == token {
			return *a, nil
		}
	}
	return assignmentdomain.Assignment{}, apperr.NotFound("assignment not found")
}

func (s *fakeStore) ListByLead(_ context.Context, leadID uuid.UUID) ([]assignmentdomain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []assignmentdomain.Assignment
	for _, a := range s.assignments {
		if a.LeadID == leadID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) AgentIDsForLead(_ context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, a := range s.assignments {
		if a.LeadID == leadID && !seen[a.AgentID] {
			seen[a.AgentID] = true
			ids = append(ids, a.AgentID)
		}
	}
	return ids, nil
}

func (s *fakeStore) transition(id uuid.UUID, to assignmentdomain.Status, reason *string) (assignmentdomain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return assignmentdomain.Assignment{}, apperr.NotFound("assignment not found")
	}
	if a.Status != assignmentdomain.StatusOffered {
		if a.Status == assignmentdomain.StatusExpired {
			return assignmentdomain.Assignment{}, apperr.Gone("offer response window has passed")
		}
		return assignmentdomain.Assignment{}, apperr.ConcurrentModification(
			fmt.Sprintf("offer already resolved as %s", a.Status))
	}
	a.Status = to
	a.Version++
	a.DeclineReason = reason
	now := time.Now()
	a.RespondedAt = &now
	return *a, nil
}

func (s *fakeStore) Accept(_ context.Context, id uuid.UUID) (assignmentdomain.Assignment, error) {
	return s.transition(id, assignmentdomain.StatusAccepted, nil)
}

func (s *fakeStore) Decline(_ context.Context, id uuid.UUID, reason string) (assignmentdomain.Assignment, error) {
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	return s.transition(id, assignmentdomain.StatusDeclined, reasonPtr)
}

func (s *fakeStore) Expire(_ context.Context, id uuid.UUID) (assignmentdomain.Assignment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok || a.Status != assignmentdomain.StatusOffered {
		return assignmentdomain.Assignment{}, false, nil
	}
	a.Status = assignmentdomain.StatusExpired
	a.Version++
	return *a, true, nil
}

func (s *fakeStore) SupersedeSiblings(_ context.Context, leadID, acceptedID uuid.UUID) ([]assignmentdomain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var superseded []assignmentdomain.Assignment
	for _, a := range s.assignments {
		if a.LeadID == leadID && a.ID != acceptedID && a.Status == assignmentdomain.StatusOffered {
			a.Status = assignmentdomain.StatusSuperseded
			a.Version++
			superseded = append(superseded, *a)
		}
	}
	return superseded, nil
}

func (s *fakeStore) ExpireOverdue(_ context.Context, now time.Time) ([]assignmentdomain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []assignmentdomain.Assignment
	for _, a := range s.assignments {
		if a.Status == assignmentdomain.StatusOffered && !now.Before(a.ExpiresAt) {
			a.Status = assignmentdomain.StatusExpired
			a.Version++
			expired = append(expired, *a)
		}
	}
	return expired, nil
}

func (s *fakeStore) ListOffered(_ context.Context) ([]assignmentdomain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []assignmentdomain.Assignment
	for _, a := range s.assignments {
		if a.Status == assignmentdomain.StatusOffered {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) byLeadAndStatus(leadID uuid.UUID, status assignmentdomain.Status) []assignmentdomain.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []assignmentdomain.Assignment
	for _, a := range s.assignments {
		if a.LeadID == leadID && a.Status == status {
			out = append(out, *a)
		}
	}
	return out
}

type fakeLeads struct {
	mu      sync.Mutex
	leads   map[uuid.UUID]*leadsdomain.Lead
	reviews map[uuid.UUID]string
}

func newFakeLeads(seed ...leadsdomain.Lead) *fakeLeads {
	f := &fakeLeads{
		leads:   make(map[uuid.UUID]*leadsdomain.Lead),
		reviews: make(map[uuid.UUID]string),
	}
	for i := range seed {
		l := seed[i]
		f.leads[l.ID] = &l
	}
	return f
}

func (f *fakeLeads) GetByID(_ context.Context, id uuid.UUID) (leadsdomain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return leadsdomain.Lead{}, apperr.NotFound("lead not found")
	}
	return *l, nil
}

func (f *fakeLeads) TransitionStatus(_ context.Context, id uuid.UUID, from, to leadsdomain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	if l.Status != from {
		return apperr.ConcurrentModification("lead status changed concurrently")
	}
	l.Status = to
	return nil
}

func (f *fakeLeads) SetActiveAgent(_ context.Context, id uuid.UUID, agentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.leads[id]; ok {
		l.ActiveAgentID = &agentID
	}
	return nil
}

func (f *fakeLeads) MarkNeedsReview(_ context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	l.Status = leadsdomain.StatusNeedsReview
	l.ReviewReason = &reason
	f.reviews[id] = reason
	return nil
}

func (f *fakeLeads) status(id uuid.UUID) leadsdomain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leads[id].Status
}

type fakeDirectory struct {
	mu        sync.Mutex
	agents    []directorydomain.Agent
	openDelta map[uuid.UUID]int
	touched   map[uuid.UUID]int
	findErr   error
	findCalls int
}

func (f *fakeDirectory) FindCandidates(_ context.Context, _, _ string, excludeIDs []uuid.UUID) ([]directorydomain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	excluded := map[uuid.UUID]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []directorydomain.Agent
	for _, a := range f.agents {
		if !excluded[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeDirectory) IncrementOpenLeads(_ context.Context, agentID uuid.UUID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openDelta == nil {
		f.openDelta = map[uuid.UUID]int{}
	}
	f.openDelta[agentID] += delta
	return nil
}

func (f *fakeDirectory) TouchLastActive(_ context.Context, agentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.touched == nil {
		f.touched = map[uuid.UUID]int{}
	}
	f.touched[agentID]++
	return nil
}

type fakeTimers struct {
	mu          sync.Mutex
	scheduled   map[uuid.UUID]time.Time
	cancelled   map[uuid.UUID]int
	failsLeft   int
	scheduleErr error
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{
		scheduled: make(map[uuid.UUID]time.Time),
		cancelled: make(map[uuid.UUID]int),
	}
}

func (f *fakeTimers) ScheduleExpiry(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failsLeft > 0 {
		f.failsLeft--
		return f.scheduleErr
	}
	f.scheduled[id] = at
	return nil
}

func (f *fakeTimers) CancelExpiry(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled[id]++
	return nil
}

func (f *fakeTimers) scheduledAt(id uuid.UUID) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.scheduled[id]
	return at, ok
}

// fakeLocker is a real in-process try-lock keyed per lead. Setting failNext
// makes the next N acquisitions report the lock as held elsewhere.
type fakeLocker struct {
	mu       sync.Mutex
	held     map[uuid.UUID]bool
	failNext int
	acquires int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[uuid.UUID]bool)}
}

func (f *fakeLocker) Acquire(_ context.Context, leadID uuid.UUID) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if f.failNext > 0 {
		f.failNext--
		return nil, lock.ErrNotAcquired
	}
	if f.held[leadID] {
		return nil, lock.ErrNotAcquired
	}
	f.held[leadID] = true
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, leadID)
	}, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

type testConfig struct {
	window    time.Duration
	maxOffers int
}

func (c testConfig) GetOfferResponseWindow() time.Duration { return c.window }
func (c testConfig) GetMaxOffersPerLead() int              { return c.maxOffers }
func (c testConfig) GetRecencyWindow() time.Duration       { return 48 * time.Hour }
func (c testConfig) GetTierCapacity(string) int            { return 5 }

// =============================================================================
// Harness
// =============================================================================

type harness struct {
	orch   *Orchestrator
	store  *fakeStore
	leads  *fakeLeads
	dir    *fakeDirectory
	timers *fakeTimers
	locker *fakeLocker
	bus    *recordingBus
	now    time.Time
}

func eligibleAgent(now time.Time) directorydomain.Agent {
	return directorydomain.Agent{
		ID:           uuid.New(),
		Active:       true,
		Verified:     true,
		Tier:         directorydomain.TierSilver,
		Territory:    directorydomain.Territory{Country: "US"},
		Expertise:    []string{"produce"},
		JoinedAt:     now.AddDate(-1, 0, 0),
		LastActiveAt: now.Add(-time.Hour),
	}
}

func newHarness(t *testing.T, agents []directorydomain.Agent, lead leadsdomain.Lead, cfg testConfig) *harness {
	t.Helper()
	h := &harness{
		store:  newFakeStore(),
		leads:  newFakeLeads(lead),
		dir:    &fakeDirectory{agents: agents},
		timers: newFakeTimers(),
		locker: newFakeLocker(),
		bus:    &recordingBus{},
		now:    time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
	h.orch = New(h.store, h.leads, h.dir, h.timers, h.locker, h.bus, cfg, logger.New("test"))
	h.orch.now = func() time.Time { return h.now }
	h.orch.retryDelay = time.Millisecond
	return h
}

func pendingLead() leadsdomain.Lead {
	return leadsdomain.Lead{
		ID:        uuid.New(),
		Category:  "produce",
		Geography: leadsdomain.Geography{Country: "US"},
		Status:    leadsdomain.StatusPending,
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestRunMatchingExtendsOfferToBestAgent(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	agent := eligibleAgent(now)
	h := newHarness(t, []directorydomain.Agent{agent}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}

	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)
	if len(offered) != 1 {
		t.Fatalf("expected 1 offered assignment, got %d", len(offered))
	}
	a := offered[0]
	if a.AgentID != agent.ID {
		t.Errorf("offer went to %s, want %s", a.AgentID, agent.ID)
	}
	if a.Rank != assignmentdomain.RankPrimary {
		t.Errorf("rank = %s, want primary", a.Rank)
	}
	if a.PublicToken == "" {
		t.Error("offer missing public response token")
	}
	if want := h.now.Add(time.Hour); !a.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", a.ExpiresAt, want)
	}
	if _, ok := h.timers.scheduledAt(a.ID); !ok {
		t.Error("expiry timer not scheduled")
	}
	if h.leads.status(lead.ID) != leadsdomain.StatusAssigned {
		t.Errorf("lead status = %s, want assigned", h.leads.status(lead.ID))
	}
	if h.bus.count("assignments.offer.created") != 1 {
		t.Error("expected one OfferCreated event")
	}
}

func TestRunMatchingNoEligibleAgentsParksLead(t *testing.T) {
	lead := pendingLead()
	h := newHarness(t, nil, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}

	if h.leads.status(lead.ID) != leadsdomain.StatusNeedsReview {
		t.Fatalf("lead status = %s, want needs_review", h.leads.status(lead.ID))
	}
	if h.leads.reviews[lead.ID] != ReviewNoEligibleAgents {
		t.Errorf("review reason = %q", h.leads.reviews[lead.ID])
	}
	if h.bus.count("leads.needs_review") != 1 {
		t.Error("expected one LeadNeedsReview event")
	}
}

func TestConcurrentAcceptOnlyOneWins(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, []directorydomain.Agent{eligibleAgent(now)}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)
	if len(offered) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(offered))
	}
	assignmentID := offered[0].ID

	const attempts = 8
	results := make(chan error, attempts)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		go func() {
			start.Wait()
			_, err := h.orch.Accept(context.Background(), assignmentID)
			results <- err
		}()
	}
	start.Done()

	wins, losses := 0, 0
	for i := 0; i < attempts; i++ {
		err := <-results
		if err == nil {
			wins++
			continue
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind == apperr.KindConcurrentModification {
			losses++
			continue
		}
		t.Fatalf("unexpected error kind: %v", err)
	}
	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
	if losses != attempts-1 {
		t.Errorf("losses = %d, want %d", losses, attempts-1)
	}

	if h.leads.status(lead.ID) != leadsdomain.StatusInProgress {
		t.Errorf("lead status = %s, want in_progress", h.leads.status(lead.ID))
	}
	if got := h.dir.openDelta[offered[0].AgentID]; got != 1 {
		t.Errorf("open lead increments = %d, want 1", got)
	}
}

func TestAcceptSupersedesSiblingsAndCancelsTimers(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	agents := []directorydomain.Agent{eligibleAgent(now), eligibleAgent(now), eligibleAgent(now)}
	h := newHarness(t, agents, lead, testConfig{window: time.Hour, maxOffers: 3})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)
	if len(offered) != 3 {
		t.Fatalf("expected 3 offers, got %d", len(offered))
	}

	if _, err := h.orch.Accept(context.Background(), offered[0].ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if got := len(h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusSuperseded)); got != 2 {
		t.Errorf("superseded = %d, want 2", got)
	}
	if h.bus.count("assignments.offer.superseded") != 2 {
		t.Error("expected two OfferSuperseded events")
	}
	for _, a := range offered {
		h.timers.mu.Lock()
		n := h.timers.cancelled[a.ID]
		h.timers.mu.Unlock()
		if n == 0 {
			t.Errorf("timer for %s not cancelled", a.ID)
		}
	}
}

func TestDeclineCascadesToNextAgentWithFreshExpiry(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	first := eligibleAgent(now)
	first.Stats.AvgRating = 5 // rank first
	second := eligibleAgent(now)
	h := newHarness(t, []directorydomain.Agent{first, second}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)
	if offered[0].AgentID != first.ID {
		t.Fatalf("first offer went to the wrong agent")
	}

	// Advance the clock; the cascade offer must get a window from now, not
	// from the original batch.
	h.now = h.now.Add(20 * time.Minute)

	if _, err := h.orch.Decline(context.Background(), offered[0].ID, "too far"); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	fresh := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)
	if len(fresh) != 1 {
		t.Fatalf("expected a cascade offer, got %d", len(fresh))
	}
	if fresh[0].AgentID != second.ID {
		t.Errorf("cascade offer went to %s, want %s", fresh[0].AgentID, second.ID)
	}
	if want := h.now.Add(time.Hour); !fresh[0].ExpiresAt.Equal(want) {
		t.Errorf("cascade expiresAt = %v, want fresh window %v", fresh[0].ExpiresAt, want)
	}
	if h.leads.status(lead.ID) != leadsdomain.StatusAssigned {
		t.Errorf("lead status = %s, want assigned", h.leads.status(lead.ID))
	}
}

func TestDeclineWithNoCandidatesLeftParksLead(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	only := eligibleAgent(now)
	h := newHarness(t, []directorydomain.Agent{only}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)

	if _, err := h.orch.Decline(context.Background(), offered[0].ID, ""); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	if h.leads.status(lead.ID) != leadsdomain.StatusNeedsReview {
		t.Fatalf("lead status = %s, want needs_review", h.leads.status(lead.ID))
	}
	if got := len(h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)); got != 0 {
		t.Errorf("no new offers expected, got %d", got)
	}
}

func TestExpireIsIdempotent(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, []directorydomain.Agent{eligibleAgent(now)}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)

	if err := h.orch.Expire(context.Background(), offered[0].ID); err != nil {
		t.Fatalf("first Expire: %v", err)
	}
	if err := h.orch.Expire(context.Background(), offered[0].ID); err != nil {
		t.Fatalf("second Expire must be a no-op, got %v", err)
	}

	if h.bus.count("assignments.offer.expired") != 1 {
		t.Errorf("expected exactly one OfferExpired event, got %d",
			h.bus.count("assignments.offer.expired"))
	}
}

func TestAcceptAfterWindowReturnsGone(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, []directorydomain.Agent{eligibleAgent(now)}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)

	// Window elapses without the timer having fired yet.
	h.now = h.now.Add(2 * time.Hour)

	_, err := h.orch.Accept(context.Background(), offered[0].ID)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindGone {
		t.Fatalf("got %v, want KindGone", err)
	}

	got, _ := h.store.GetByID(context.Background(), offered[0].ID)
	if got.Status != assignmentdomain.StatusExpired {
		t.Errorf("late accept must expire the offer, status = %s", got.Status)
	}
}

func TestRespondByToken(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, []directorydomain.Agent{eligibleAgent(now)}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)

	accepted, err := h.orch.AcceptByToken(context.Background(), offered[0].PublicToken)
	if err != nil {
		t.Fatalf("AcceptByToken: %v", err)
	}
	if accepted.ID != offered[0].ID {
		t.Errorf("accepted the wrong assignment")
	}

	if _, err := h.orch.AcceptByToken(context.Background(), "no-such-token"); err == nil {
		t.Error("unknown token must fail")
	}
}

func TestSweepOverdueExpiresAndCascades(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	first := eligibleAgent(now)
	first.Stats.AvgRating = 5
	second := eligibleAgent(now)
	h := newHarness(t, []directorydomain.Agent{first, second}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}

	h.now = h.now.Add(2 * time.Hour)

	n, err := h.orch.SweepOverdue(context.Background())
	if err != nil {
		t.Fatalf("SweepOverdue: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d offers, want 1", n)
	}

	fresh := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)
	if len(fresh) != 1 || fresh[0].AgentID != second.ID {
		t.Errorf("expected cascade offer to the second agent after sweep")
	}
}

func TestRecoverTimersReArmsAndExpires(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	first := eligibleAgent(now)
	first.Stats.AvgRating = 5
	second := eligibleAgent(now)
	h := newHarness(t, []directorydomain.Agent{first, second}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	original := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)[0]

	// Simulate a restart with the timer store wiped.
	h.timers.mu.Lock()
	delete(h.timers.scheduled, original.ID)
	h.timers.mu.Unlock()

	recovered, err := h.orch.RecoverTimers(context.Background())
	if err != nil {
		t.Fatalf("RecoverTimers: %v", err)
	}
	if recovered != 1 {
		t.Fatalf("recovered = %d, want 1", recovered)
	}
	if _, ok := h.timers.scheduledAt(original.ID); !ok {
		t.Error("timer not re-armed for the surviving offer")
	}

	// An offer already past its window at recovery time is expired instead.
	h.now = h.now.Add(2 * time.Hour)
	if _, err := h.orch.RecoverTimers(context.Background()); err != nil {
		t.Fatalf("RecoverTimers (overdue): %v", err)
	}
	got, _ := h.store.GetByID(context.Background(), original.ID)
	if got.Status != assignmentdomain.StatusExpired {
		t.Errorf("overdue offer status = %s, want expired", got.Status)
	}
}

func TestRematchRequiresNeedsReview(t *testing.T) {
	lead := pendingLead()
	h := newHarness(t, nil, lead, testConfig{window: time.Hour, maxOffers: 1})

	_, err := h.leads.GetByID(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("seed lead missing: %v", err)
	}

	err = h.orch.Rematch(context.Background(), lead.ID)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindInvalidTransition {
		t.Fatalf("rematch of a pending lead: got %v, want KindInvalidTransition", err)
	}
}

func TestRunMatchingStorageFailureParksLead(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, []directorydomain.Agent{eligibleAgent(now)}, lead, testConfig{window: time.Hour, maxOffers: 1})
	h.dir.findErr = errors.New("connection refused")

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}

	h.dir.mu.Lock()
	calls := h.dir.findCalls
	h.dir.mu.Unlock()
	if calls != storageRetries {
		t.Errorf("candidate lookups = %d, want %d retries", calls, storageRetries)
	}
	if h.leads.status(lead.ID) != leadsdomain.StatusNeedsReview {
		t.Fatalf("lead status = %s, want needs_review", h.leads.status(lead.ID))
	}
	if h.leads.reviews[lead.ID] != ReviewStorageFailure {
		t.Errorf("review reason = %q, want %q", h.leads.reviews[lead.ID], ReviewStorageFailure)
	}
	if h.bus.count("leads.needs_review") != 1 {
		t.Error("expected one LeadNeedsReview event")
	}
}

func TestRunMatchingAssignsLeadBeforeOfferVisible(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, []directorydomain.Agent{eligibleAgent(now)}, lead, testConfig{window: time.Hour, maxOffers: 1})

	var statusAtOffer leadsdomain.Status
	h.store.onCreate = func() { statusAtOffer = h.leads.status(lead.ID) }

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}

	// An acceptance racing the matching run must never find the lead still
	// pending once its offer exists.
	if statusAtOffer != leadsdomain.StatusAssigned {
		t.Errorf("lead status when the offer became visible = %s, want assigned", statusAtOffer)
	}
}

func TestCascadeRetriesContendedLock(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, []directorydomain.Agent{eligibleAgent(now)}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)

	// The lease is held elsewhere for the first two attempts, then freed.
	h.locker.mu.Lock()
	h.locker.failNext = 2
	h.locker.mu.Unlock()

	if _, err := h.orch.Decline(context.Background(), offered[0].ID, ""); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	if h.leads.status(lead.ID) != leadsdomain.StatusNeedsReview {
		t.Fatalf("lead status = %s, want needs_review", h.leads.status(lead.ID))
	}
	// The cascade got through and re-ran matching, which found nobody new.
	if h.leads.reviews[lead.ID] != ReviewNoEligibleAgents {
		t.Errorf("review reason = %q, want %q", h.leads.reviews[lead.ID], ReviewNoEligibleAgents)
	}
}

func TestCascadeLockExhaustionParksLead(t *testing.T) {
	lead := pendingLead()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, []directorydomain.Agent{eligibleAgent(now)}, lead, testConfig{window: time.Hour, maxOffers: 1})

	if err := h.orch.RunMatching(context.Background(), lead.ID); err != nil {
		t.Fatalf("RunMatching: %v", err)
	}
	offered := h.store.byLeadAndStatus(lead.ID, assignmentdomain.StatusOffered)

	// The lease never frees up. The lead must not be left assigned with a
	// dead offer and nothing in flight.
	h.locker.mu.Lock()
	h.locker.failNext = lockRetries
	h.locker.mu.Unlock()

	if _, err := h.orch.Decline(context.Background(), offered[0].ID, ""); err != nil {
		t.Fatalf("Decline: %v", err)
	}

	if h.leads.status(lead.ID) != leadsdomain.StatusNeedsReview {
		t.Fatalf("lead status = %s, want needs_review", h.leads.status(lead.ID))
	}
	if h.leads.reviews[lead.ID] != ReviewRoutingContended {
		t.Errorf("review reason = %q, want %q", h.leads.reviews[lead.ID], ReviewRoutingContended)
	}
	if h.bus.count("leads.needs_review") != 1 {
		t.Error("expected one LeadNeedsReview event")
	}
}

func TestDuplicateOfferForAgentConflicts(t *testing.T) {
	store := newFakeStore()
	leadID, agentID := uuid.New(), uuid.New()

	if _, err := store.Create(context.Background(), assignmentdomain.Assignment{LeadID: leadID, AgentID: agentID}); err != nil {
		t.Fatalf("first offer: %v", err)
	}

	// One assignment per (lead, agent) pair, matching the unique index on
	// the assignments table.
	_, err := store.Create(context.Background(), assignmentdomain.Assignment{LeadID: leadID, AgentID: agentID})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConcurrentModification {
		t.Fatalf("duplicate offer: got %v, want KindConcurrentModification", err)
	}
}
