// Package notification delivers offer lifecycle notifications to agents.
// Delivery is best effort: a failed notification never rolls back or blocks
// the offer lifecycle, it only logs. Email is the primary channel with a
// webhook fallback.
package notification

import (
	"context"
	"time"
)

// Channel is one delivery mechanism.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Message is a channel-independent notification.
type Message struct {
	AgentID    string
	AgentName  string
	AgentEmail string
	EventType  string
	Subject    string
	Body       string
	ActionURL  string
	ExpiresAt  *time.Time
}

// Event types carried on notifications.
const (
	EventOfferCreated    = "offer_created"
	EventOfferSuperseded = "offer_superseded"
	EventOfferExpired    = "offer_expired"
)
