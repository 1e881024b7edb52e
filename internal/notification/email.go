package notification

import (
	"context"
	"fmt"
	"time"

	"leadrouter_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// EmailChannel delivers notifications over SMTP via go-mail.
type EmailChannel struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewEmailChannel(cfg config.NotificationConfig) *EmailChannel {
	return &EmailChannel{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (e *EmailChannel) Name() string { return "email" }

func (e *EmailChannel) Send(ctx context.Context, msg Message) error {
	if msg.AgentEmail == "" {
		return fmt.Errorf("agent has no email address")
	}

	m := gomail.NewMsg()
	if err := m.FromFormat(e.fromName, e.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.AgentEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, renderOfferEmail(msg))

	client, err := gomail.NewClient(e.host,
		gomail.WithPort(e.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(e.username),
		gomail.WithPassword(e.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}
