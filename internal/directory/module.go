// Package directory provides the agent directory bounded context.
package directory

import (
	"leadrouter_backend/internal/directory/handler"
	"leadrouter_backend/internal/directory/repository"
	"leadrouter_backend/internal/directory/service"
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the directory bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule wires the directory module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "directory"
}

// Repository exposes the agent store for the orchestrator wiring.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts directory routes on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/agents"))
}

var _ apphttp.Module = (*Module)(nil)
