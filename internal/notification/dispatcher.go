package notification

import (
	"context"
	"fmt"

	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
)

// AgentContacts resolves an agent ID to its delivery details. Implemented by
// the directory repository.
type AgentContacts interface {
	ContactByID(ctx context.Context, agentID uuid.UUID) (name, email string, err error)
}

// Dispatcher walks the channel list in order and stops at the first success.
// All failures are logged; none propagate.
type Dispatcher struct {
	contacts AgentContacts
	channels []Channel
	log      *logger.Logger
}

func NewDispatcher(contacts AgentContacts, log *logger.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{contacts: contacts, channels: channels, log: log}
}

// Dispatch resolves the agent and attempts delivery channel by channel.
func (d *Dispatcher) Dispatch(ctx context.Context, agentID uuid.UUID, msg Message) {
	name, email, err := d.contacts.ContactByID(ctx, agentID)
	if err != nil {
		d.log.NotificationFailure("lookup", agentID.String(), msg.EventType, err)
		return
	}
	msg.AgentID = agentID.String()
	msg.AgentName = name
	msg.AgentEmail = email

	if len(d.channels) == 0 {
		d.log.NotificationFailure("none", agentID.String(), msg.EventType,
			fmt.Errorf("no notification channels configured"))
		return
	}

	for _, ch := range d.channels {
		if err := ch.Send(ctx, msg); err != nil {
			d.log.NotificationFailure(ch.Name(), agentID.String(), msg.EventType, err)
			continue
		}
		return
	}
}
