// Package repository persists assignment offers. Every status change goes
// through a status-guarded UPDATE so concurrent responders race on the
// database row, not on application state.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadrouter_backend/internal/assignments/domain"
	"leadrouter_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const assignmentNotFoundMsg = "assignment not found"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const assignmentColumns = `
	id, lead_id, agent_id, rank, score, reasons, status, public_token,
	offered_at, expires_at, responded_at, decline_reason, version,
	created_at, updated_at`

// Create inserts a new offered assignment.
func (r *Repository) Create(ctx context.Context, a domain.Assignment) (domain.Assignment, error) {
	query := `
		INSERT INTO assignments (
			lead_id, agent_id, rank, score, reasons, status, public_token,
			offered_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, 'offered', $6, $7, $8)
		RETURNING id, status, version, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		a.LeadID, a.AgentID, a.Rank, a.Score, a.Reasons,
		a.PublicToken, a.OfferedAt, a.ExpiresAt,
	).Scan(&a.ID, &a.Status, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		// The (lead_id, agent_id) unique index turns a duplicate offer into
		// a conflict the orchestrator treats as a lost race.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Assignment{}, apperr.ConcurrentModification(
				"agent already holds an assignment for this lead")
		}
		return domain.Assignment{}, fmt.Errorf("create assignment: %w", err)
	}

	return a, nil
}

// GetByID retrieves an assignment by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// GetByToken retrieves an assignment by its public response token.
func (r *Repository) GetByToken(ctx context.Context, token string) (domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE public_token = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, token))
}

// ListByLead returns all assignments for a lead, newest offer first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + `
		FROM assignments WHERE lead_id = $1 ORDER BY offered_at DESC, id`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list assignments by lead: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// AgentIDsForLead returns every agent that has ever held an assignment for
// the lead, in any status. Used to exclude them from cascade re-matching.
func (r *Repository) AgentIDsForLead(ctx context.Context, leadID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT agent_id FROM assignments WHERE lead_id = $1`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list assigned agents for lead: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan agent id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent ids: %w", err)
	}

	return ids, nil
}

// Accept atomically moves an offered assignment to accepted. On a CAS miss
// the current row is re-read to report whether the caller was late (window
// already expired) or lost to a concurrent response.
func (r *Repository) Accept(ctx context.Context, id uuid.UUID) (domain.Assignment, error) {
	query := `
		UPDATE assignments
		SET status = 'accepted',
		    responded_at = now(),
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND status = 'offered'
		RETURNING ` + assignmentColumns

	a, err := r.scanOne(r.pool.QueryRow(ctx, query, id))
	if err == nil {
		return a, nil
	}
	if appErr := (*apperr.Error)(nil); errors.As(err, &appErr) && appErr.Kind == apperr.KindNotFound {
		return domain.Assignment{}, r.casMissError(ctx, id)
	}
	return domain.Assignment{}, fmt.Errorf("accept assignment: %w", err)
}

// Decline atomically moves an offered assignment to declined.
func (r *Repository) Decline(ctx context.Context, id uuid.UUID, reason string) (domain.Assignment, error) {
	query := `
		UPDATE assignments
		SET status = 'declined',
		    responded_at = now(),
		    decline_reason = $2,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND status = 'offered'
		RETURNING ` + assignmentColumns

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	a, err := r.scanOne(r.pool.QueryRow(ctx, query, id, reasonPtr))
	if err == nil {
		return a, nil
	}
	if appErr := (*apperr.Error)(nil); errors.As(err, &appErr) && appErr.Kind == apperr.KindNotFound {
		return domain.Assignment{}, r.casMissError(ctx, id)
	}
	return domain.Assignment{}, fmt.Errorf("decline assignment: %w", err)
}

// Expire moves an offered assignment to expired. A miss means someone
// responded first or the offer already expired; expiry is idempotent, so
// that is reported as expired=false rather than an error.
func (r *Repository) Expire(ctx context.Context, id uuid.UUID) (domain.Assignment, bool, error) {
	query := `
		UPDATE assignments
		SET status = 'expired',
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND status = 'offered'
		RETURNING ` + assignmentColumns

	a, err := r.scanOne(r.pool.QueryRow(ctx, query, id))
	if err == nil {
		return a, true, nil
	}
	if appErr := (*apperr.Error)(nil); errors.As(err, &appErr) && appErr.Kind == apperr.KindNotFound {
		return domain.Assignment{}, false, nil
	}
	return domain.Assignment{}, false, fmt.Errorf("expire assignment: %w", err)
}

// SupersedeSiblings closes out every still-offered assignment for the lead
// except the accepted one. Returns the superseded rows for event publishing
// and timer cancellation.
func (r *Repository) SupersedeSiblings(ctx context.Context, leadID uuid.UUID, acceptedID uuid.UUID) ([]domain.Assignment, error) {
	query := `
		UPDATE assignments
		SET status = 'superseded',
		    version = version + 1,
		    updated_at = now()
		WHERE lead_id = $1 AND id != $2 AND status = 'offered'
		RETURNING ` + assignmentColumns

	rows, err := r.pool.Query(ctx, query, leadID, acceptedID)
	if err != nil {
		return nil, fmt.Errorf("supersede sibling assignments: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ExpireOverdue marks every offered assignment past its expiry as expired.
// This is the safety-net sweep behind the per-offer timers; both paths hit
// the same status guard, so double-firing is harmless.
func (r *Repository) ExpireOverdue(ctx context.Context, now time.Time) ([]domain.Assignment, error) {
	query := `
		UPDATE assignments
		SET status = 'expired',
		    version = version + 1,
		    updated_at = now()
		WHERE status = 'offered' AND expires_at <= $1
		RETURNING ` + assignmentColumns

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("expire overdue assignments: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListOffered returns all currently offered assignments. Used by the worker's
// startup recovery scan to re-arm timers lost in a crash.
func (r *Repository) ListOffered(ctx context.Context) ([]domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + `
		FROM assignments WHERE status = 'offered' ORDER BY expires_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list offered assignments: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// casMissError classifies why a status-guarded update matched no row.
func (r *Repository) casMissError(ctx context.Context, id uuid.UUID) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == domain.StatusExpired {
		return apperr.Gone("offer response window has passed")
	}
	return apperr.ConcurrentModification(
		fmt.Sprintf("offer already resolved as %s", current.Status))
}

func (r *Repository) scanOne(row pgx.Row) (domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(
		&a.ID, &a.LeadID, &a.AgentID, &a.Rank, &a.Score, &a.Reasons,
		&a.Status, &a.PublicToken,
		&a.OfferedAt, &a.ExpiresAt, &a.RespondedAt, &a.DeclineReason,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Assignment{}, apperr.NotFound(assignmentNotFoundMsg)
	}
	if err != nil {
		return domain.Assignment{}, fmt.Errorf("scan assignment: %w", err)
	}
	return a, nil
}

func (r *Repository) scanAll(rows pgx.Rows) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(
			&a.ID, &a.LeadID, &a.AgentID, &a.Rank, &a.Score, &a.Reasons,
			&a.Status, &a.PublicToken,
			&a.OfferedAt, &a.ExpiresAt, &a.RespondedAt, &a.DeclineReason,
			&a.Version, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return assignments, nil
}
