// Package repository persists the assignment audit trail. Entries are
// append-only records of every lifecycle event, written from bus
// subscriptions.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one audit record.
type Entry struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	AgentID      *uuid.UUID
	AssignmentID *uuid.UUID
	EventType    string
	Detail       string
	OccurredAt   time.Time
	CreatedAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append writes one audit entry.
func (r *Repository) Append(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO audit_entries (lead_id, agent_id, assignment_id, event_type, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		e.LeadID, e.AgentID, e.AssignmentID, e.EventType, e.Detail, e.OccurredAt)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ListByLead returns a lead's audit trail oldest first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Entry, error) {
	query := `
		SELECT id, lead_id, agent_id, assignment_id, event_type, detail, occurred_at, created_at
		FROM audit_entries
		WHERE lead_id = $1
		ORDER BY occurred_at, id`

	return r.list(ctx, query, leadID)
}

// ListSince returns all entries recorded at or after the given time, used
// for periodic exports.
func (r *Repository) ListSince(ctx context.Context, since time.Time) ([]Entry, error) {
	query := `
		SELECT id, lead_id, agent_id, assignment_id, event_type, detail, occurred_at, created_at
		FROM audit_entries
		WHERE occurred_at >= $1
		ORDER BY occurred_at, id`

	return r.list(ctx, query, since)
}

func (r *Repository) list(ctx context.Context, query string, arg interface{}) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.LeadID, &e.AgentID, &e.AssignmentID,
			&e.EventType, &e.Detail, &e.OccurredAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}
