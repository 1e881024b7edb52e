// Package audit records the assignment lifecycle as an append-only trail
// and exports it as CSV to object storage.
package audit

import (
	"context"
	"fmt"

	"leadrouter_backend/internal/audit/repository"
	"leadrouter_backend/internal/events"
	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
)

// Subscriber turns offer lifecycle events into audit entries. Writes are
// best effort; a failed audit write is logged and never blocks the
// lifecycle.
type Subscriber struct {
	repo *repository.Repository
	log  *logger.Logger
}

func NewSubscriber(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Subscriber {
	s := &Subscriber{repo: repo, log: log}
	s.subscribe(bus)
	return s
}

func (s *Subscriber) subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(s.onEvent))
	bus.Subscribe(events.LeadAssigned{}.EventName(), events.HandlerFunc(s.onEvent))
	bus.Subscribe(events.LeadNeedsReview{}.EventName(), events.HandlerFunc(s.onEvent))
	bus.Subscribe(events.OfferCreated{}.EventName(), events.HandlerFunc(s.onEvent))
	bus.Subscribe(events.OfferAccepted{}.EventName(), events.HandlerFunc(s.onEvent))
	bus.Subscribe(events.OfferDeclined{}.EventName(), events.HandlerFunc(s.onEvent))
	bus.Subscribe(events.OfferExpired{}.EventName(), events.HandlerFunc(s.onEvent))
	bus.Subscribe(events.OfferSuperseded{}.EventName(), events.HandlerFunc(s.onEvent))
}

func (s *Subscriber) onEvent(ctx context.Context, e events.Event) error {
	entry, ok := entryFor(e)
	if !ok {
		return nil
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.log.Error("audit write failed", "event", e.EventName(), "error", err)
	}
	return nil
}

func entryFor(e events.Event) (repository.Entry, bool) {
	entry := repository.Entry{
		EventType:  e.EventName(),
		OccurredAt: e.OccurredAt(),
	}

	switch evt := e.(type) {
	case events.LeadCreated:
		entry.LeadID = evt.LeadID
		entry.Detail = fmt.Sprintf("category=%s country=%s", evt.Category, evt.Country)
	case events.LeadAssigned:
		entry.LeadID = evt.LeadID
		entry.AgentID = ptr(evt.AgentID)
	case events.LeadNeedsReview:
		entry.LeadID = evt.LeadID
		entry.Detail = evt.Reason
	case events.OfferCreated:
		entry.LeadID = evt.LeadID
		entry.AgentID = ptr(evt.AgentID)
		entry.AssignmentID = ptr(evt.AssignmentID)
		entry.Detail = fmt.Sprintf("rank=%s score=%.2f", evt.Rank, evt.Score)
	case events.OfferAccepted:
		entry.LeadID = evt.LeadID
		entry.AgentID = ptr(evt.AgentID)
		entry.AssignmentID = ptr(evt.AssignmentID)
	case events.OfferDeclined:
		entry.LeadID = evt.LeadID
		entry.AgentID = ptr(evt.AgentID)
		entry.AssignmentID = ptr(evt.AssignmentID)
		entry.Detail = evt.Reason
	case events.OfferExpired:
		entry.LeadID = evt.LeadID
		entry.AgentID = ptr(evt.AgentID)
		entry.AssignmentID = ptr(evt.AssignmentID)
	case events.OfferSuperseded:
		entry.LeadID = evt.LeadID
		entry.AgentID = ptr(evt.AgentID)
		entry.AssignmentID = ptr(evt.AssignmentID)
		entry.Detail = fmt.Sprintf("acceptedBy=%s", evt.AcceptedBy)
	default:
		return repository.Entry{}, false
	}

	return entry, true
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
