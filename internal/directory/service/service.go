// Package service implements agent directory management.
package service

import (
	"context"
	"strings"
	"time"

	"leadrouter_backend/internal/directory/domain"
	"leadrouter_backend/internal/directory/repository"
	"leadrouter_backend/internal/directory/transport"
	"leadrouter_backend/platform/apperr"
	"leadrouter_backend/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// CreateAgent registers a new agent. Phone numbers are normalized to E.164
// using the territory country as the dialing region.
func (s *Service) CreateAgent(ctx context.Context, req transport.UpsertAgentRequest) (transport.AgentResponse, error) {
	agent, err := s.fromRequest(req)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	now := time.Now()
	agent.JoinedAt = now
	agent.LastActiveAt = now

	created, err := s.repo.Create(ctx, agent)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return transport.ToAgentResponse(created), nil
}

// UpdateAgent replaces an agent's profile.
func (s *Service) UpdateAgent(ctx context.Context, id uuid.UUID, req transport.UpsertAgentRequest) (transport.AgentResponse, error) {
	agent, err := s.fromRequest(req)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	agent.ID = id

	updated, err := s.repo.Update(ctx, agent)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return transport.ToAgentResponse(updated), nil
}

// GetAgent returns one agent.
func (s *Service) GetAgent(ctx context.Context, id uuid.UUID) (transport.AgentResponse, error) {
	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return transport.ToAgentResponse(agent), nil
}

// ListAgents returns the directory.
func (s *Service) ListAgents(ctx context.Context, activeOnly bool) ([]transport.AgentResponse, error) {
	agents, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	out := make([]transport.AgentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, transport.ToAgentResponse(a))
	}
	return out, nil
}

func (s *Service) fromRequest(req transport.UpsertAgentRequest) (domain.Agent, error) {
	tier := domain.Tier(strings.ToLower(req.Tier))
	if !tier.Valid() {
		return domain.Agent{}, apperr.Validation("unknown agent tier")
	}

	country := strings.ToUpper(strings.TrimSpace(req.Territory.Country))

	contactPhone := req.ContactPhone
	if contactPhone != "" {
		contactPhone = phone.NormalizeE164Region(contactPhone, country)
	}

	categories := make([]string, 0, len(req.Territory.Categories))
	for _, c := range req.Territory.Categories {
		categories = append(categories, strings.ToLower(strings.TrimSpace(c)))
	}
	expertise := make([]string, 0, len(req.Expertise))
	for _, c := range req.Expertise {
		expertise = append(expertise, strings.ToLower(strings.TrimSpace(c)))
	}

	return domain.Agent{
		Name:         strings.TrimSpace(req.Name),
		ContactEmail: strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		ContactPhone: contactPhone,
		Active:       req.Active,
		Verified:     req.Verified,
		Tier:         tier,
		Territory: domain.Territory{
			Country:    country,
			State:      strings.TrimSpace(req.Territory.State),
			City:       strings.TrimSpace(req.Territory.City),
			Latitude:   req.Territory.Latitude,
			Longitude:  req.Territory.Longitude,
			RadiusKm:   req.Territory.RadiusKm,
			Categories: categories,
			Exclusive:  req.Territory.Exclusive,
		},
		Expertise:       expertise,
		Specializations: req.Specializations,
		Certifications:  req.Certifications,
		Stats: domain.Stats{
			ConversionRate:     req.Stats.ConversionRate,
			Satisfaction:       req.Stats.Satisfaction,
			AvgRating:          req.Stats.AvgRating,
			AvgResponseMinutes: req.Stats.AvgResponseMinutes,
			YearsExperience:    req.Stats.YearsExperience,
			ClosedDeals:        req.Stats.ClosedDeals,
		},
	}, nil
}
