// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// LeadIDKey is the context key for the lead being processed
	LeadIDKey contextKey = "lead_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and lead_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	if leadID, ok := ctx.Value(LeadIDKey).(string); ok && leadID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("lead_id", leadID))}
	}

	return newLogger
}

// WithLead returns a logger scoped to a lead.
func (l *Logger) WithLead(leadID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("lead_id", leadID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// OfferEvent logs a lifecycle transition on an assignment offer.
func (l *Logger) OfferEvent(event, assignmentID, leadID, agentID string) {
	l.Info("offer_event",
		slog.String("event", event),
		slog.String("assignment_id", assignmentID),
		slog.String("lead_id", leadID),
		slog.String("agent_id", agentID),
	)
}

// NoEligibleAgents logs the needs-review outcome when matching finds nobody.
// This is a valid business outcome, not an error, hence warning level.
func (l *Logger) NoEligibleAgents(leadID string, candidates int) {
	l.Warn("no_eligible_agents",
		slog.String("lead_id", leadID),
		slog.Int("candidates_considered", candidates),
	)
}

// NotificationFailure logs a delivery failure. Delivery is best-effort and
// never rolls back a state transition, so this stays at warning level.
func (l *Logger) NotificationFailure(channel, agentID, eventType string, err error) {
	l.Warn("notification_delivery_failure",
		slog.String("channel", channel),
		slog.String("agent_id", agentID),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
