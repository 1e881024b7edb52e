// Package repository persists the agent directory.
package repository

import (
	"context"
	"errors"
	"fmt"

	"leadrouter_backend/internal/directory/domain"
	"leadrouter_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const agentNotFoundMsg = "agent not found"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const agentColumns = `
	id, name, contact_email, contact_phone, active, verified, tier,
	territory_country, territory_state, territory_city,
	territory_latitude, territory_longitude, territory_radius_km,
	territory_categories, territory_exclusive,
	expertise, specializations, certifications,
	conversion_rate, satisfaction, avg_rating, avg_response_minutes,
	years_experience, closed_deals, open_leads,
	joined_at, last_active_at, created_at, updated_at`

// Create inserts a new agent.
func (r *Repository) Create(ctx context.Context, a domain.Agent) (domain.Agent, error) {
	query := `
		INSERT INTO agents (
			name, contact_email, contact_phone, active, verified, tier,
			territory_country, territory_state, territory_city,
			territory_latitude, territory_longitude, territory_radius_km,
			territory_categories, territory_exclusive,
			expertise, specializations, certifications,
			conversion_rate, satisfaction, avg_rating, avg_response_minutes,
			years_experience, closed_deals, joined_at, last_active_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25
		)
		RETURNING id, open_leads, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		a.Name, a.ContactEmail, a.ContactPhone, a.Active, a.Verified, a.Tier,
		a.Territory.Country, a.Territory.State, a.Territory.City,
		a.Territory.Latitude, a.Territory.Longitude, a.Territory.RadiusKm,
		a.Territory.Categories, a.Territory.Exclusive,
		a.Expertise, a.Specializations, a.Certifications,
		a.Stats.ConversionRate, a.Stats.Satisfaction, a.Stats.AvgRating,
		a.Stats.AvgResponseMinutes, a.Stats.YearsExperience, a.Stats.ClosedDeals,
		a.JoinedAt, a.LastActiveAt,
	).Scan(&a.ID, &a.OpenLeads, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return domain.Agent{}, fmt.Errorf("create agent: %w", err)
	}

	return a, nil
}

// Update replaces the agent's mutable profile fields.
func (r *Repository) Update(ctx context.Context, a domain.Agent) (domain.Agent, error) {
	query := `
		UPDATE agents SET
			name = $2, contact_email = $3, contact_phone = $4,
			active = $5, verified = $6, tier = $7,
			territory_country = $8, territory_state = $9, territory_city = $10,
			territory_latitude = $11, territory_longitude = $12, territory_radius_km = $13,
			territory_categories = $14, territory_exclusive = $15,
			expertise = $16, specializations = $17, certifications = $18,
			conversion_rate = $19, satisfaction = $20, avg_rating = $21,
			avg_response_minutes = $22, years_experience = $23, closed_deals = $24,
			updated_at = now()
		WHERE id = $1
		RETURNING ` + agentColumns

	return r.scanOne(r.pool.QueryRow(ctx, query,
		a.ID,
		a.Name, a.ContactEmail, a.ContactPhone, a.Active, a.Verified, a.Tier,
		a.Territory.Country, a.Territory.State, a.Territory.City,
		a.Territory.Latitude, a.Territory.Longitude, a.Territory.RadiusKm,
		a.Territory.Categories, a.Territory.Exclusive,
		a.Expertise, a.Specializations, a.Certifications,
		a.Stats.ConversionRate, a.Stats.Satisfaction, a.Stats.AvgRating,
		a.Stats.AvgResponseMinutes, a.Stats.YearsExperience, a.Stats.ClosedDeals,
	))
}

// GetByID retrieves an agent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// List returns all agents, optionally only active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents
		WHERE ($1 = false OR active = true)
		ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// FindCandidates returns the broad candidate snapshot for a matching run.
// Only the cheap database-side rules are applied here (active, verified, a
// plausible territory, and exclusions); the matching core applies the full
// filter against the snapshot.
func (r *Repository) FindCandidates(ctx context.Context, category, country string, excludeIDs []uuid.UUID) ([]domain.Agent, error) {
	// Radius territories can reach across a border, so agents with a
	// configured radius are admitted regardless of country and left to the
	// distance check in the matching core.
	query := `SELECT ` + agentColumns + ` FROM agents
		WHERE active = true
		  AND verified = true
		  AND (territory_country = $1
		       OR $2 = ANY(territory_categories)
		       OR (territory_latitude IS NOT NULL
		           AND territory_longitude IS NOT NULL
		           AND territory_radius_km > 0))
		  AND (CARDINALITY($3::uuid[]) = 0 OR id != ALL($3::uuid[]))
		ORDER BY id`

	if excludeIDs == nil {
		excludeIDs = []uuid.UUID{}
	}

	rows, err := r.pool.Query(ctx, query, country, category, excludeIDs)
	if err != nil {
		return nil, fmt.Errorf("find candidate agents: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// IncrementOpenLeads adjusts the agent's open-lead counter. The counter
// never goes below zero.
func (r *Repository) IncrementOpenLeads(ctx context.Context, agentID uuid.UUID, delta int) error {
	query := `
		UPDATE agents
		SET open_leads = GREATEST(open_leads + $2, 0), updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, agentID, delta)
	if err != nil {
		return fmt.Errorf("increment open leads: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(agentNotFoundMsg)
	}
	return nil
}

// ContactByID returns the agent's delivery details for notifications.
func (r *Repository) ContactByID(ctx context.Context, agentID uuid.UUID) (string, string, error) {
	var name, email string
	err := r.pool.QueryRow(ctx,
		`SELECT name, contact_email FROM agents WHERE id = $1`, agentID,
	).Scan(&name, &email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", apperr.NotFound(agentNotFoundMsg)
	}
	if err != nil {
		return "", "", fmt.Errorf("get agent contact: %w", err)
	}
	return name, email, nil
}

// TouchLastActive bumps the agent's activity timestamp. Called whenever an
// agent responds to an offer; keeps them inside the recency window.
func (r *Repository) TouchLastActive(ctx context.Context, agentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE agents SET last_active_at = now(), updated_at = now() WHERE id = $1`,
		agentID)
	if err != nil {
		return fmt.Errorf("touch agent last active: %w", err)
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (domain.Agent, error) {
	a, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Agent{}, apperr.NotFound(agentNotFoundMsg)
	}
	if err != nil {
		return domain.Agent{}, fmt.Errorf("scan agent: %w", err)
	}
	return a, nil
}

func (r *Repository) scanAll(rows pgx.Rows) ([]domain.Agent, error) {
	var agents []domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

func scanAgent(row pgx.Row) (domain.Agent, error) {
	var a domain.Agent
	err := row.Scan(
		&a.ID, &a.Name, &a.ContactEmail, &a.ContactPhone,
		&a.Active, &a.Verified, &a.Tier,
		&a.Territory.Country, &a.Territory.State, &a.Territory.City,
		&a.Territory.Latitude, &a.Territory.Longitude, &a.Territory.RadiusKm,
		&a.Territory.Categories, &a.Territory.Exclusive,
		&a.Expertise, &a.Specializations, &a.Certifications,
		&a.Stats.ConversionRate, &a.Stats.Satisfaction, &a.Stats.AvgRating,
		&a.Stats.AvgResponseMinutes, &a.Stats.YearsExperience, &a.Stats.ClosedDeals,
		&a.OpenLeads,
		&a.JoinedAt, &a.LastActiveAt, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}
