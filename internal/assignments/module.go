// Package assignments provides the offer lifecycle bounded context.
package assignments

import (
	"leadrouter_backend/internal/assignments/handler"
	"leadrouter_backend/internal/assignments/orchestrator"
	"leadrouter_backend/internal/assignments/repository"
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the assignments bounded context implementing http.Module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	orchestrator  *orchestrator.Orchestrator
	repo          *repository.Repository
}

// NewModule wires the assignments module around an already-constructed
// orchestrator (the composition root builds it, since it spans leads, the
// directory, and the timer client).
func NewModule(pool *pgxpool.Pool, orch *orchestrator.Orchestrator, val *validator.Validator) *Module {
	return &Module{
		handler:       handler.New(orch, val),
		publicHandler: handler.NewPublicHandler(orch, val),
		orchestrator:  orch,
		repo:          repository.New(pool),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "assignments"
}

// Orchestrator exposes the offer lifecycle driver for the worker wiring.
func (m *Module) Orchestrator() *orchestrator.Orchestrator {
	return m.orchestrator
}

// RegisterRoutes mounts assignment routes: the authenticated admin surface
// and the rate-limited public token endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/assignments"))

	publicGroup := ctx.V1.Group("/public/offers")
	publicGroup.Use(ctx.OfferRateLimiter.RateLimit())
	m.publicHandler.RegisterRoutes(publicGroup)
}

var _ apphttp.Module = (*Module)(nil)
