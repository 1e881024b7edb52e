package handler

import (
	"net/http"
	"strconv"

	"leadrouter_backend/internal/leads/repository"
	"leadrouter_backend/internal/leads/service"
	"leadrouter_backend/internal/leads/transport"
	"leadrouter_backend/platform/httpkit"
	"leadrouter_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler exposes the lead intake and overview endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts lead routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.CreateLead)
	rg.GET("", h.ListLeads)
	rg.GET("/:id", h.GetLead)
	rg.POST("/:id/rematch", httpkit.RequireRole("admin"), h.Rematch)
}

// CreateLead accepts a new lead and starts routing it.
func (h *Handler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.CreateLead(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, resp)
}

// GetLead returns one lead with its routing state.
func (h *Handler) GetLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	resp, err := h.svc.GetLead(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// ListLeads returns a filtered page of leads.
func (h *Handler) ListLeads(c *gin.Context) {
	params := repository.ListParams{
		Status:   c.Query("status"),
		Category: c.Query("category"),
	}
	params.Page, _ = parseIntQuery(c, "page")
	params.PageSize, _ = parseIntQuery(c, "pageSize")

	resp, err := h.svc.ListLeads(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// Rematch re-enters a needs_review lead into matching.
func (h *Handler) Rematch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	resp, err := h.svc.Rematch(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func parseIntQuery(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
