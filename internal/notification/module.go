package notification

import (
	"context"
	"fmt"

	"leadrouter_backend/internal/events"
	"leadrouter_backend/platform/config"
	"leadrouter_backend/platform/logger"
)

// Module subscribes the dispatcher to the offer lifecycle events. It has no
// HTTP surface of its own.
type Module struct {
	dispatcher *Dispatcher
	baseURL    string
}

// NewModule builds the channel chain from config and wires the bus
// subscriptions. Email is skipped entirely when disabled; the webhook is
// appended whenever a URL is configured.
func NewModule(cfg config.NotificationConfig, contacts AgentContacts, bus events.Bus, log *logger.Logger) *Module {
	var channels []Channel
	if cfg.GetEmailEnabled() {
		channels = append(channels, NewEmailChannel(cfg))
	}
	if cfg.GetWebhookURL() != "" {
		channels = append(channels, NewWebhookChannel(cfg.GetWebhookURL()))
	}

	m := &Module{
		dispatcher: NewDispatcher(contacts, log, channels...),
		baseURL:    cfg.GetAppBaseURL(),
	}
	m.subscribe(bus)
	return m
}

func (m *Module) subscribe(bus events.Bus) {
	bus.Subscribe(events.OfferCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.OfferCreated)
		if !ok {
			return nil
		}
		expires := evt.ExpiresAt
		m.dispatcher.Dispatch(ctx, evt.AgentID, Message{
			EventType: EventOfferCreated,
			Subject:   "New lead offer",
			Body:      "You have been offered a new lead. Review and respond before the offer expires.",
			ActionURL: fmt.Sprintf("%s/offers/%s", m.baseURL, evt.PublicToken),
			ExpiresAt: &expires,
		})
		return nil
	}))

	bus.Subscribe(events.OfferSuperseded{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.OfferSuperseded)
		if !ok {
			return nil
		}
		m.dispatcher.Dispatch(ctx, evt.AgentID, Message{
			EventType: EventOfferSuperseded,
			Subject:   "Lead offer no longer available",
			Body:      "The lead you were offered has been taken by another agent.",
		})
		return nil
	}))

	bus.Subscribe(events.OfferExpired{}.EventName(), events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		evt, ok := e.(events.OfferExpired)
		if !ok {
			return nil
		}
		m.dispatcher.Dispatch(ctx, evt.AgentID, Message{
			EventType: EventOfferExpired,
			Subject:   "Lead offer expired",
			Body:      "Your lead offer expired without a response and has been passed on.",
		})
		return nil
	}))
}
