// Package service implements lead intake and the bridge into matching.
package service

import (
	"context"
	"strings"

	"leadrouter_backend/internal/events"
	"leadrouter_backend/internal/leads/domain"
	"leadrouter_backend/internal/leads/repository"
	"leadrouter_backend/internal/leads/transport"
	"leadrouter_backend/platform/logger"

	"github.com/google/uuid"
)

// Router triggers matching runs. Implemented by the assignment orchestrator.
type Router interface {
	RunMatching(ctx context.Context, leadID uuid.UUID) error
	Rematch(ctx context.Context, leadID uuid.UUID) error
}

type Service struct {
	repo   *repository.Repository
	router Router
	bus    events.Bus
	log    *logger.Logger
}

func New(repo *repository.Repository, router Router, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, router: router, bus: bus, log: log}
}

// CreateLead persists a new lead and kicks off matching. Matching runs in
// the background; intake responds as soon as the lead exists.
func (s *Service) CreateLead(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	urgency := domain.Urgency(req.Urgency)
	if urgency == "" {
		urgency = domain.UrgencyMedium
	}

	lead, err := s.repo.Create(ctx, domain.Lead{
		Category: strings.ToLower(strings.TrimSpace(req.Category)),
		Geography: domain.Geography{
			Country:   strings.ToUpper(strings.TrimSpace(req.Country)),
			State:     strings.TrimSpace(req.State),
			City:      strings.TrimSpace(req.City),
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		},
		ValueCents:     req.ValueCents,
		Urgency:        urgency,
		Specifications: req.Specifications,
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		Category:   lead.Category,
		Country:    lead.Geography.Country,
		ValueCents: lead.ValueCents,
		Urgency:    string(lead.Urgency),
	})

	go func() {
		if err := s.router.RunMatching(context.Background(), lead.ID); err != nil {
			s.log.WithLead(lead.ID.String()).Error("matching run failed", "error", err)
		}
	}()

	return transport.ToLeadResponse(lead), nil
}

// GetLead returns one lead.
func (s *Service) GetLead(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// ListLeads returns a filtered page of leads.
func (s *Service) ListLeads(ctx context.Context, params repository.ListParams) (transport.ListLeadsResponse, error) {
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.ListLeadsResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(result.Items))
	for _, l := range result.Items {
		items = append(items, transport.ToLeadResponse(l))
	}

	return transport.ListLeadsResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// Rematch re-enters a parked lead into the matching pipeline. Unlike intake
// this runs synchronously so the operator sees the outcome.
func (s *Service) Rematch(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	if err := s.router.Rematch(ctx, id); err != nil {
		return transport.LeadResponse{}, err
	}
	return s.GetLead(ctx, id)
}
