package notification

import (
	"context"
	"fmt"
	"testing"

	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
)

type stubContacts struct {
	err error
}

func (s stubContacts) ContactByID(context.Context, uuid.UUID) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	return "Test Agent", "agent@example.com", nil
}

type stubChannel struct {
	name  string
	err   error
	calls int
	last  Message
}

func (s *stubChannel) Name() string { return s.name }

func (s *stubChannel) Send(_ context.Context, msg Message) error {
	s.calls++
	s.last = msg
	return s.err
}

func TestDispatchStopsAtFirstSuccessfulChannel(t *testing.T) {
	primary := &stubChannel{name: "email"}
	fallback := &stubChannel{name: "webhook"}
	d := NewDispatcher(stubContacts{}, logger.New("test"), primary, fallback)

	d.Dispatch(context.Background(), uuid.New(), Message{EventType: EventOfferCreated, Subject: "s"})

	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback must not be used when primary succeeds, calls = %d", fallback.calls)
	}
	if primary.last.AgentEmail != "agent@example.com" {
		t.Errorf("contact details not resolved onto the message")
	}
}

func TestDispatchFallsBackWhenPrimaryFails(t *testing.T) {
	primary := &stubChannel{name: "email", err: fmt.Errorf("smtp down")}
	fallback := &stubChannel{name: "webhook"}
	d := NewDispatcher(stubContacts{}, logger.New("test"), primary, fallback)

	d.Dispatch(context.Background(), uuid.New(), Message{EventType: EventOfferCreated})

	if fallback.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.calls)
	}
}

func TestDispatchNeverPanicsWhenEverythingFails(t *testing.T) {
	primary := &stubChannel{name: "email", err: fmt.Errorf("smtp down")}
	fallback := &stubChannel{name: "webhook", err: fmt.Errorf("endpoint 500")}
	d := NewDispatcher(stubContacts{}, logger.New("test"), primary, fallback)

	// Must log and return; failures never propagate to the caller.
	d.Dispatch(context.Background(), uuid.New(), Message{EventType: EventOfferExpired})

	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("both channels should have been attempted")
	}
}

func TestDispatchSkipsDeliveryWhenContactLookupFails(t *testing.T) {
	primary := &stubChannel{name: "email"}
	d := NewDispatcher(stubContacts{err: fmt.Errorf("agent gone")}, logger.New("test"), primary)

	d.Dispatch(context.Background(), uuid.New(), Message{EventType: EventOfferCreated})

	if primary.calls != 0 {
		t.Errorf("no delivery expected when the contact lookup fails")
	}
}
