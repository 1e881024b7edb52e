// Package repository persists leads. Status changes use the same
// status-guarded UPDATE idiom as the assignment store so routing never
// clobbers a concurrent transition.
package repository

import (
	"context"
	"errors"
	"fmt"

	"leadrouter_backend/internal/leads/domain"
	"leadrouter_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadNotFoundMsg = "lead not found"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, category, country, state, city, latitude, longitude,
	value_cents, urgency, specifications, status, active_agent_id,
	review_reason, created_at, updated_at`

// Create inserts a new pending lead.
func (r *Repository) Create(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	query := `
		INSERT INTO leads (
			category, country, state, city, latitude, longitude,
			value_cents, urgency, specifications, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')
		RETURNING id, status, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		l.Category, l.Geography.Country, l.Geography.State, l.Geography.City,
		l.Geography.Latitude, l.Geography.Longitude,
		l.ValueCents, l.Urgency, l.Specifications,
	).Scan(&l.ID, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("create lead: %w", err)
	}

	return l, nil
}

// GetByID retrieves a lead.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// ListParams filters the lead overview.
type ListParams struct {
	Status   string
	Category string
	Page     int
	PageSize int
}

// ListResult is one page of leads.
type ListResult struct {
	Items      []domain.Lead
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// List returns a paginated lead overview, newest first.
func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	where := "WHERE ($1 = '' OR status = $1) AND ($2 = '' OR category = $2)"

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM leads "+where,
		params.Status, params.Category,
	).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count leads: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		"SELECT "+leadColumns+" FROM leads "+where+
			" ORDER BY created_at DESC, id LIMIT $3 OFFSET $4",
		params.Status, params.Category, pageSize, offset,
	)
	if err != nil {
		return ListResult{}, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var items []domain.Lead
	for rows.Next() {
		l, err := r.scanRow(rows)
		if err != nil {
			return ListResult{}, err
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate leads: %w", err)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return ListResult{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

// TransitionStatus moves the lead between routing states with a guard on the
// expected current status.
func (r *Repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) error {
	if !domain.CanTransition(from, to) {
		return apperr.InvalidTransition(
			fmt.Sprintf("lead cannot move from %s to %s", from, to))
	}

	query := `
		UPDATE leads
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`

	tag, err := r.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("transition lead status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return apperr.ConcurrentModification(
			fmt.Sprintf("lead status is %s, expected %s", current.Status, from))
	}

	return nil
}

// SetActiveAgent records the agent a lead was handed to.
func (r *Repository) SetActiveAgent(ctx context.Context, id uuid.UUID, agentID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET active_agent_id = $2, updated_at = now() WHERE id = $1`,
		id, agentID)
	if err != nil {
		return fmt.Errorf("set active agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}
	return nil
}

// MarkNeedsReview parks the lead for operator attention with a reason.
func (r *Repository) MarkNeedsReview(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE leads
		SET status = 'needs_review', review_reason = $2, updated_at = now()
		WHERE id = $1 AND status NOT IN ('closed_won', 'closed_lost', 'expired', 'cancelled')`

	tag, err := r.pool.Exec(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("mark lead needs review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		current, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return apperr.InvalidTransition(
			fmt.Sprintf("lead in terminal status %s cannot be parked for review", current.Status))
	}

	return nil
}

func (r *Repository) scanOne(row pgx.Row) (domain.Lead, error) {
	l, err := r.scanRowFrom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("scan lead: %w", err)
	}
	return l, nil
}

func (r *Repository) scanRow(rows pgx.Rows) (domain.Lead, error) {
	l, err := r.scanRowFrom(rows)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("scan lead: %w", err)
	}
	return l, nil
}

func (r *Repository) scanRowFrom(row pgx.Row) (domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(
		&l.ID, &l.Category,
		&l.Geography.Country, &l.Geography.State, &l.Geography.City,
		&l.Geography.Latitude, &l.Geography.Longitude,
		&l.ValueCents, &l.Urgency, &l.Specifications,
		&l.Status, &l.ActiveAgentID, &l.ReviewReason,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}
