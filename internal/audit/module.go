package audit

import (
	"net/http"
	"time"

	"leadrouter_backend/internal/adapters/storage"
	"leadrouter_backend/internal/audit/repository"
	"leadrouter_backend/internal/events"
	apphttp "leadrouter_backend/internal/http"
	"leadrouter_backend/platform/httpkit"
	"leadrouter_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the audit bounded context implementing http.Module.
type Module struct {
	repo     *repository.Repository
	exporter *Exporter
}

// NewModule wires the audit trail. The exporter is nil when object storage
// is not configured; the export endpoint then reports the feature disabled.
func NewModule(pool *pgxpool.Pool, bus events.Bus, store storage.ObjectStore, bucket string, log *logger.Logger) *Module {
	repo := repository.New(pool)
	NewSubscriber(repo, bus, log)

	m := &Module{repo: repo}
	if store != nil {
		m.exporter = NewExporter(repo, store, bucket)
	}
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "audit"
}

// RegisterRoutes mounts the audit endpoints. Both require the admin role.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rg := ctx.Protected.Group("/audit")
	rg.GET("/leads/:id", httpkit.RequireRole("admin"), m.getLeadTrail)
	rg.POST("/export", httpkit.RequireRole("admin"), m.export)
}

func (m *Module) getLeadTrail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	entries, err := m.repo.ListByLead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, entries)
}

func (m *Module) export(c *gin.Context) {
	if m.exporter == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "audit export storage not configured", nil)
		return
	}

	since := time.Now().AddDate(0, 0, -30)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "since must be RFC3339", nil)
			return
		}
		since = parsed
	}

	result, err := m.exporter.ExportSince(c.Request.Context(), since)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

var _ apphttp.Module = (*Module)(nil)
