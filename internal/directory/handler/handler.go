package handler

import (
	"net/http"

	"leadrouter_backend/internal/directory/service"
	"leadrouter_backend/internal/directory/transport"
	"leadrouter_backend/platform/httpkit"
	"leadrouter_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler exposes the agent directory admin endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts directory routes. Mutations require the admin role.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListAgents)
	rg.GET("/:id", h.GetAgent)
	rg.POST("", httpkit.RequireRole("admin"), h.CreateAgent)
	rg.PUT("/:id", httpkit.RequireRole("admin"), h.UpdateAgent)
}

// ListAgents returns the directory. Pass ?active=true to hide inactive agents.
func (h *Handler) ListAgents(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	resp, err := h.svc.ListAgents(c.Request.Context(), activeOnly)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// GetAgent returns one agent.
func (h *Handler) GetAgent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	resp, err := h.svc.GetAgent(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// CreateAgent registers a new agent.
func (h *Handler) CreateAgent(c *gin.Context) {
	var req transport.UpsertAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.CreateAgent(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, resp)
}

// UpdateAgent replaces an agent profile.
func (h *Handler) UpdateAgent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpsertAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.UpdateAgent(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}
