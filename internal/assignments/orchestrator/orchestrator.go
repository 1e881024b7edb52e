// Package orchestrator drives the offer lifecycle: it runs matching for a
// lead, extends offers, applies responses, and cascades to the next
// candidate when an offer dies. All status changes funnel through the
// assignment store's compare-and-set updates; the orchestrator only decides
// what to try next.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	assignmentdomain "leadrouter_backend/internal/assignments/domain"
	"leadrouter_backend/internal/assignments/lock"
	directorydomain "leadrouter_backend/internal/directory/domain"
	"leadrouter_backend/internal/events"
	leadsdomain "leadrouter_backend/internal/leads/domain"
	"leadrouter_backend/internal/matching"
	"leadrouter_backend/platform/apperr"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"
	"leadrouter_backend/platform/token"

	"github.com/google/uuid"
)

const (
	offerTokenBytes = 24

	storageRetries    = 3
	storageRetryDelay = 200 * time.Millisecond
	lockRetries       = 5
)

// Review reasons recorded on the lead when routing gives up.
const (
	ReviewNoEligibleAgents = "no_eligible_agents"
	ReviewOffersExhausted  = "offers_exhausted"
	ReviewStorageFailure   = "storage_failure"
	ReviewRoutingContended = "routing_contended"
)

// AssignmentStore is the persistence surface the orchestrator needs.
type AssignmentStore interface {
	Create(ctx context.Context, a assignmentdomain.Assignment) (assignmentdomain.Assignment, error)
	GetByID(ctx context.Context, id uuid.UUID) (assignmentdomain.Assignment, error)
	GetByToken(ctx context.Context, token string) (assignmentdomain.Assignment, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]assignmentdomain.Assignment, error)
	AgentIDsForLead(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error)
	Accept(ctx context.Context, id uuid.UUID) (assignmentdomain.Assignment, error)
	Decline(ctx context.Context, id uuid.UUID, reason string) (assignmentdomain.Assignment, error)
	Expire(ctx context.Context, id uuid.UUID) (assignmentdomain.Assignment, bool, error)
	SupersedeSiblings(ctx context.Context, leadID, acceptedID uuid.UUID) ([]assignmentdomain.Assignment, error)
	ExpireOverdue(ctx context.Context, now time.Time) ([]assignmentdomain.Assignment, error)
	ListOffered(ctx context.Context) ([]assignmentdomain.Assignment, error)
}

// LeadStore is the lead-side surface: loading the lead and moving it through
// its routing states.
type LeadStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadsdomain.Lead, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to leadsdomain.Status) error
	SetActiveAgent(ctx context.Context, id uuid.UUID, agentID uuid.UUID) error
	MarkNeedsReview(ctx context.Context, id uuid.UUID, reason string) error
}

// AgentDirectory supplies candidate snapshots and the open-lead counter.
type AgentDirectory interface {
	FindCandidates(ctx context.Context, category, country string, excludeIDs []uuid.UUID) ([]directorydomain.Agent, error)
	IncrementOpenLeads(ctx context.Context, agentID uuid.UUID, delta int) error
	TouchLastActive(ctx context.Context, agentID uuid.UUID) error
}

// OfferTimers arms and cancels the one-shot expiry timer per offer.
type OfferTimers interface {
	ScheduleExpiry(ctx context.Context, assignmentID uuid.UUID, at time.Time) error
	CancelExpiry(ctx context.Context, assignmentID uuid.UUID) error
}

// LeadLocker serializes matching runs per lead.
type LeadLocker interface {
	Acquire(ctx context.Context, leadID uuid.UUID) (func(), error)
}

type Orchestrator struct {
	store     AssignmentStore
	leads     LeadStore
	directory AgentDirectory
	timers    OfferTimers
	locker    LeadLocker
	bus       events.Bus
	cfg       config.MatchingConfig
	log       *logger.Logger

	// now and retryDelay are swapped out in tests.
	now        func() time.Time
	retryDelay time.Duration
}

func New(store AssignmentStore, leads LeadStore, directory AgentDirectory, timers OfferTimers, locker LeadLocker, bus events.Bus, cfg config.MatchingConfig, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		leads:      leads,
		directory:  directory,
		timers:     timers,
		locker:     locker,
		bus:        bus,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		retryDelay: storageRetryDelay,
	}
}

// Get returns one assignment.
func (o *Orchestrator) Get(ctx context.Context, id uuid.UUID) (assignmentdomain.Assignment, error) {
	return o.store.GetByID(ctx, id)
}

// GetByToken returns the assignment behind a public response token.
func (o *Orchestrator) GetByToken(ctx context.Context, publicToken string) (assignmentdomain.Assignment, error) {
	return o.store.GetByToken(ctx, publicToken)
}

// ListForLead returns the full offer history for a lead.
func (o *Orchestrator) ListForLead(ctx context.Context, leadID uuid.UUID) ([]assignmentdomain.Assignment, error) {
	return o.store.ListByLead(ctx, leadID)
}

// =============================================================================
// Matching runs
// =============================================================================

// RunMatching executes the full pipeline for a lead: filter, score, rank,
// and extend offers to the top candidates. Agents who already held an offer
// for this lead (in any status) are excluded, which makes the cascade walk
// down the original ranking one batch at a time.
func (o *Orchestrator) RunMatching(ctx context.Context, leadID uuid.UUID) error {
	release, err := o.locker.Acquire(ctx, leadID)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			o.log.Info("matching already running for lead, skipping", "leadId", leadID)
			return nil
		}
		return err
	}
	defer release()

	return o.runMatchingLocked(ctx, leadID)
}

func (o *Orchestrator) runMatchingLocked(ctx context.Context, leadID uuid.UUID) error {
	var lead leadsdomain.Lead
	if err := o.retryStorage(ctx, "load lead", func() error {
		var err error
		lead, err = o.leads.GetByID(ctx, leadID)
		return err
	}); err != nil {
		return o.parkOnFailure(ctx, leadID, err)
	}
	if lead.Status != leadsdomain.StatusPending && lead.Status != leadsdomain.StatusNeedsReview {
		return apperr.InvalidTransition(
			fmt.Sprintf("cannot run matching for lead in status %s", lead.Status))
	}

	var exclude []uuid.UUID
	if err := o.retryStorage(ctx, "list prior agents", func() error {
		var err error
		exclude, err = o.store.AgentIDsForLead(ctx, leadID)
		return err
	}); err != nil {
		return o.parkOnFailure(ctx, leadID, err)
	}

	var candidates []directorydomain.Agent
	if err := o.retryStorage(ctx, "find candidates", func() error {
		var err error
		candidates, err = o.directory.FindCandidates(ctx, lead.Category, lead.Geography.Country, exclude)
		return err
	}); err != nil {
		return o.parkOnFailure(ctx, leadID, err)
	}

	scores, rejections := matching.Rank(lead, candidates, matching.ScoreParams{
		Capacities:    o.cfg,
		RecencyWindow: o.cfg.GetRecencyWindow(),
		Now:           o.now(),
	})
	if len(rejections) > 0 {
		o.log.Info("matching rejected candidates",
			"leadId", leadID, "rejected", len(rejections))
	}
	if len(scores) == 0 {
		o.log.NoEligibleAgents(leadID.String(), len(candidates))
		return o.parkForReview(ctx, leadID, ReviewNoEligibleAgents)
	}

	maxOffers := o.cfg.GetMaxOffersPerLead()
	if len(scores) > maxOffers {
		scores = scores[:maxOffers]
	}

	// The lead moves to assigned before any offer becomes visible, so an
	// acceptance that arrives immediately finds the lead in the state the
	// handoff expects.
	if lead.Status != leadsdomain.StatusAssigned {
		if err := o.retryStorage(ctx, "mark lead assigned", func() error {
			return o.leads.TransitionStatus(ctx, leadID, lead.Status, leadsdomain.StatusAssigned)
		}); err != nil {
			return o.parkOnFailure(ctx, leadID, err)
		}
	}

	if err := o.extendOffers(ctx, lead, scores); err != nil {
		return o.parkOnFailure(ctx, leadID, err)
	}

	return nil
}

// Rematch is the operator re-entry hook for leads parked in needs_review.
func (o *Orchestrator) Rematch(ctx context.Context, leadID uuid.UUID) error {
	lead, err := o.leads.GetByID(ctx, leadID)
	if err != nil {
		return err
	}
	if lead.Status != leadsdomain.StatusNeedsReview {
		return apperr.InvalidTransition(
			fmt.Sprintf("rematch requires needs_review, lead is %s", lead.Status))
	}
	return o.RunMatching(ctx, leadID)
}

func (o *Orchestrator) extendOffers(ctx context.Context, lead leadsdomain.Lead, scores []matching.Score) error {
	now := o.now()
	expiresAt := now.Add(o.cfg.GetOfferResponseWindow())

	for i, score := range scores {
		agentID, err := uuid.Parse(score.AgentID)
		if err != nil {
			return fmt.Errorf("parse scored agent id: %w", err)
		}

		publicToken, err := token.GenerateRandomToken(offerTokenBytes)
		if err != nil {
			return fmt.Errorf("generate offer token: %w", err)
		}

		var created assignmentdomain.Assignment
		if err := o.retryStorage(ctx, "create assignment", func() error {
			var err error
			created, err = o.store.Create(ctx, assignmentdomain.Assignment{
				LeadID:      lead.ID,
				AgentID:     agentID,
				Rank:        assignmentdomain.RankForPosition(i),
				Score:       score.Total,
				Reasons:     score.Reasons,
				PublicToken: publicToken,
				OfferedAt:   now,
				ExpiresAt:   expiresAt,
			})
			return err
		}); err != nil {
			return err
		}

		o.scheduleExpiryWithRetry(ctx, created)

		o.log.OfferEvent("offer_created", created.ID.String(), lead.ID.String(), agentID.String())
		o.bus.Publish(ctx, events.OfferCreated{
			BaseEvent:    events.NewBaseEvent(),
			AssignmentID: created.ID,
			LeadID:       lead.ID,
			AgentID:      agentID,
			Rank:         string(created.Rank),
			Score:        created.Score,
			ExpiresAt:    created.ExpiresAt,
			PublicToken:  created.PublicToken,
		})
	}

	return nil
}

// scheduleExpiryWithRetry arms the offer's expiry timer, retrying with a
// doubling delay. If all attempts fail the periodic overdue sweep still
// expires the offer, so this logs and moves on rather than failing the run.
func (o *Orchestrator) scheduleExpiryWithRetry(ctx context.Context, a assignmentdomain.Assignment) {
	delay := o.retryDelay
	var err error
	for attempt := 0; attempt < storageRetries; attempt++ {
		if err = o.timers.ScheduleExpiry(ctx, a.ID, a.ExpiresAt); err == nil {
			return
		}
		time.Sleep(delay)
		delay *= 2
	}
	o.log.Error("failed to schedule offer expiry, sweep will catch it",
		"assignmentId", a.ID, "error", err)
}

func (o *Orchestrator) parkForReview(ctx context.Context, leadID uuid.UUID, reason string) error {
	if err := o.retryStorage(ctx, "mark needs review", func() error {
		return o.leads.MarkNeedsReview(ctx, leadID, reason)
	}); err != nil {
		return err
	}
	o.bus.Publish(ctx, events.LeadNeedsReview{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Reason:    reason,
	})
	return nil
}

// parkOnFailure sends a lead to the review queue after storage retries were
// exhausted. Typed application errors are domain outcomes and pass through
// untouched.
func (o *Orchestrator) parkOnFailure(ctx context.Context, leadID uuid.UUID, cause error) error {
	var appErr *apperr.Error
	if errors.As(cause, &appErr) {
		return cause
	}
	o.log.Error("storage failure while routing lead, parking for review",
		"leadId", leadID, "error", cause)
	if err := o.parkForReview(ctx, leadID, ReviewStorageFailure); err != nil {
		o.log.Error("failed to park lead after storage failure",
			"leadId", leadID, "error", err)
		return cause
	}
	return nil
}

// retryStorage runs a storage operation with bounded retries and a doubling
// delay. Typed application errors return immediately.
func (o *Orchestrator) retryStorage(ctx context.Context, op string, fn func() error) error {
	delay := o.retryDelay
	var err error
	for attempt := 1; attempt <= storageRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return err
		}
		if attempt == storageRetries {
			break
		}
		o.log.Warn("storage operation failed, retrying",
			"operation", op, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

// =============================================================================
// Responses
// =============================================================================

// Accept applies an agent's acceptance. Exactly one acceptance can win per
// lead; losers of the race get a concurrent-modification error from the
// store. On success the siblings are superseded, timers cancelled, and the
// lead handed to the accepting agent.
func (o *Orchestrator) Accept(ctx context.Context, assignmentID uuid.UUID) (assignmentdomain.Assignment, error) {
	current, err := o.store.GetByID(ctx, assignmentID)
	if err != nil {
		return assignmentdomain.Assignment{}, err
	}
	if current.Overdue(o.now()) {
		// The timer has not fired yet but the window is over. Close it out
		// now rather than accepting a stale offer.
		o.expireAndCascade(ctx, current.ID)
		return assignmentdomain.Assignment{}, apperr.Gone("offer response window has passed")
	}

	accepted, err := o.store.Accept(ctx, assignmentID)
	if err != nil {
		return assignmentdomain.Assignment{}, err
	}

	o.timerCancel(ctx, accepted.ID)
	o.touchAgent(ctx, accepted.AgentID)

	superseded, err := o.store.SupersedeSiblings(ctx, accepted.LeadID, accepted.ID)
	if err != nil {
		return assignmentdomain.Assignment{}, err
	}
	for _, sibling := range superseded {
		o.timerCancel(ctx, sibling.ID)
		o.log.OfferEvent("offer_superseded", sibling.ID.String(), sibling.LeadID.String(), sibling.AgentID.String())
		o.bus.Publish(ctx, events.OfferSuperseded{
			BaseEvent:    events.NewBaseEvent(),
			AssignmentID: sibling.ID,
			LeadID:       sibling.LeadID,
			AgentID:      sibling.AgentID,
			AcceptedBy:   accepted.AgentID,
		})
	}

	if err := o.retryStorage(ctx, "hand off lead", func() error {
		return o.leads.TransitionStatus(ctx, accepted.LeadID, leadsdomain.StatusAssigned, leadsdomain.StatusInProgress)
	}); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return assignmentdomain.Assignment{}, err
		}
		// The acceptance itself is already committed; only the lead-side
		// handoff failed. The lead goes to the review queue instead.
		if parkErr := o.parkOnFailure(ctx, accepted.LeadID, err); parkErr != nil {
			o.log.Error("failed to park lead after handoff failure",
				"leadId", accepted.LeadID, "error", parkErr)
		}
		return accepted, nil
	}
	if err := o.retryStorage(ctx, "record active agent", func() error {
		return o.leads.SetActiveAgent(ctx, accepted.LeadID, accepted.AgentID)
	}); err != nil {
		if parkErr := o.parkOnFailure(ctx, accepted.LeadID, err); parkErr != nil {
			o.log.Error("failed to park lead after handoff failure",
				"leadId", accepted.LeadID, "error", parkErr)
		}
		return accepted, nil
	}
	if err := o.directory.IncrementOpenLeads(ctx, accepted.AgentID, 1); err != nil {
		o.log.Error("failed to increment agent open leads",
			"agentId", accepted.AgentID, "error", err)
	}

	o.log.OfferEvent("offer_accepted", accepted.ID.String(), accepted.LeadID.String(), accepted.AgentID.String())
	o.bus.Publish(ctx, events.OfferAccepted{
		BaseEvent:    events.NewBaseEvent(),
		AssignmentID: accepted.ID,
		LeadID:       accepted.LeadID,
		AgentID:      accepted.AgentID,
	})
	o.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    accepted.LeadID,
		AgentID:   accepted.AgentID,
	})

	return accepted, nil
}

// Decline applies an agent's decline and cascades to the next candidate.
func (o *Orchestrator) Decline(ctx context.Context, assignmentID uuid.UUID, reason string) (assignmentdomain.Assignment, error) {
	current, err := o.store.GetByID(ctx, assignmentID)
	if err != nil {
		return assignmentdomain.Assignment{}, err
	}
	if current.Overdue(o.now()) {
		o.expireAndCascade(ctx, current.ID)
		return assignmentdomain.Assignment{}, apperr.Gone("offer response window has passed")
	}

	declined, err := o.store.Decline(ctx, assignmentID, reason)
	if err != nil {
		return assignmentdomain.Assignment{}, err
	}

	o.timerCancel(ctx, declined.ID)
	o.touchAgent(ctx, declined.AgentID)

	o.log.OfferEvent("offer_declined", declined.ID.String(), declined.LeadID.String(), declined.AgentID.String())
	o.bus.Publish(ctx, events.OfferDeclined{
		BaseEvent:    events.NewBaseEvent(),
		AssignmentID: declined.ID,
		LeadID:       declined.LeadID,
		AgentID:      declined.AgentID,
		Reason:       reason,
	})

	if err := o.cascade(ctx, declined.LeadID); err != nil {
		return assignmentdomain.Assignment{}, err
	}

	return declined, nil
}

// AcceptByToken resolves a public response token and accepts the offer.
func (o *Orchestrator) AcceptByToken(ctx context.Context, publicToken string) (assignmentdomain.Assignment, error) {
	a, err := o.store.GetByToken(ctx, publicToken)
	if err != nil {
		return assignmentdomain.Assignment{}, err
	}
	return o.Accept(ctx, a.ID)
}

// DeclineByToken resolves a public response token and declines the offer.
func (o *Orchestrator) DeclineByToken(ctx context.Context, publicToken string, reason string) (assignmentdomain.Assignment, error) {
	a, err := o.store.GetByToken(ctx, publicToken)
	if err != nil {
		return assignmentdomain.Assignment{}, err
	}
	return o.Decline(ctx, a.ID, reason)
}

// =============================================================================
// Expiry
// =============================================================================

// Expire times out a single offer. Safe to call multiple times and safe to
// race against a concurrent response; whoever wins the status guard wins.
func (o *Orchestrator) Expire(ctx context.Context, assignmentID uuid.UUID) error {
	return o.expireAndCascade(ctx, assignmentID)
}

func (o *Orchestrator) expireAndCascade(ctx context.Context, assignmentID uuid.UUID) error {
	expired, ok, err := o.store.Expire(ctx, assignmentID)
	if err != nil {
		return err
	}
	if !ok {
		// Already resolved by a response or an earlier expiry.
		return nil
	}

	o.log.OfferEvent("offer_expired", expired.ID.String(), expired.LeadID.String(), expired.AgentID.String())
	o.bus.Publish(ctx, events.OfferExpired{
		BaseEvent:    events.NewBaseEvent(),
		AssignmentID: expired.ID,
		LeadID:       expired.LeadID,
		AgentID:      expired.AgentID,
	})

	return o.cascade(ctx, expired.LeadID)
}

// SweepOverdue is the periodic backstop for offers whose timer was lost.
func (o *Orchestrator) SweepOverdue(ctx context.Context) (int, error) {
	expired, err := o.store.ExpireOverdue(ctx, o.now())
	if err != nil {
		return 0, err
	}

	for _, a := range expired {
		o.timerCancel(ctx, a.ID)
		o.log.OfferEvent("offer_expired", a.ID.String(), a.LeadID.String(), a.AgentID.String())
		o.bus.Publish(ctx, events.OfferExpired{
			BaseEvent:    events.NewBaseEvent(),
			AssignmentID: a.ID,
			LeadID:       a.LeadID,
			AgentID:      a.AgentID,
		})
		if err := o.cascade(ctx, a.LeadID); err != nil {
			o.log.Error("cascade after sweep expiry failed",
				"leadId", a.LeadID, "error", err)
		}
	}

	return len(expired), nil
}

// RecoverTimers re-arms expiry timers for all offered assignments. Run once
// at worker startup so offers extended before a crash still time out.
func (o *Orchestrator) RecoverTimers(ctx context.Context) (int, error) {
	offered, err := o.store.ListOffered(ctx)
	if err != nil {
		return 0, err
	}

	recovered := 0
	now := o.now()
	for _, a := range offered {
		if a.Overdue(now) {
			if err := o.expireAndCascade(ctx, a.ID); err != nil {
				o.log.Error("recovery expiry failed", "assignmentId", a.ID, "error", err)
			}
			continue
		}
		o.scheduleExpiryWithRetry(ctx, a)
		recovered++
	}

	return recovered, nil
}

// =============================================================================
// Cascade
// =============================================================================

// cascade decides what happens after an offer dies. While sibling offers are
// still open nothing happens; once the batch is exhausted the lead goes back
// through matching with all previously tried agents excluded, and if nobody
// new qualifies it is parked for review.
func (o *Orchestrator) cascade(ctx context.Context, leadID uuid.UUID) error {
	release, err := o.acquireWithRetry(ctx, leadID)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			// Another holder kept the lease through every attempt. The lead
			// may be left with no open offers, so it goes to the review
			// queue rather than being dropped.
			o.log.Warn("cascade could not take lead lock, parking lead", "leadId", leadID)
			if parkErr := o.parkForReview(ctx, leadID, ReviewRoutingContended); parkErr != nil {
				var appErr *apperr.Error
				if errors.As(parkErr, &appErr) {
					// The lead resolved or was cancelled in the meantime.
					return nil
				}
				return parkErr
			}
			return nil
		}
		return err
	}
	defer release()

	all, err := o.store.ListByLead(ctx, leadID)
	if err != nil {
		return err
	}
	for _, a := range all {
		if a.Status == assignmentdomain.StatusOffered {
			return nil
		}
		if a.Status == assignmentdomain.StatusAccepted {
			return nil
		}
	}

	lead, err := o.leads.GetByID(ctx, leadID)
	if err != nil {
		return err
	}
	if lead.Status.Terminal() || lead.Status == leadsdomain.StatusInProgress {
		return nil
	}

	// Re-enter matching directly; we already hold the lead lock.
	if err := o.retryStorage(ctx, "mark offers exhausted", func() error {
		return o.leads.MarkNeedsReview(ctx, leadID, ReviewOffersExhausted)
	}); err != nil {
		return err
	}
	err = o.runMatchingLocked(ctx, leadID)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) && appErr.Kind == apperr.KindInvalidTransition {
			return nil
		}
	}
	return err
}

// acquireWithRetry takes the lead lock with bounded retries. The holder is
// typically a short matching run that is about to release it.
func (o *Orchestrator) acquireWithRetry(ctx context.Context, leadID uuid.UUID) (func(), error) {
	delay := o.retryDelay
	for attempt := 1; ; attempt++ {
		release, err := o.locker.Acquire(ctx, leadID)
		if err == nil {
			return release, nil
		}
		if !errors.Is(err, lock.ErrNotAcquired) || attempt == lockRetries {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// timerCancel is best effort: a timer firing for an already-resolved offer
// is a no-op thanks to the status guard.
func (o *Orchestrator) timerCancel(ctx context.Context, assignmentID uuid.UUID) {
	if err := o.timers.CancelExpiry(ctx, assignmentID); err != nil {
		o.log.Warn("failed to cancel offer timer", "assignmentId", assignmentID, "error", err)
	}
}

// touchAgent records the response as agent activity so the agent stays inside
// the recency window for future matching runs.
func (o *Orchestrator) touchAgent(ctx context.Context, agentID uuid.UUID) {
	if err := o.directory.TouchLastActive(ctx, agentID); err != nil {
		o.log.Warn("failed to touch agent activity", "agentId", agentID, "error", err)
	}
}
