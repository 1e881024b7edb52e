package handler

import (
	"net/http"

	"leadrouter_backend/internal/assignments/orchestrator"
	"leadrouter_backend/internal/assignments/transport"
	"leadrouter_backend/platform/httpkit"
	"leadrouter_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler exposes the authenticated assignment endpoints.
type Handler struct {
	orch *orchestrator.Orchestrator
	val  *validator.Validator
}

func New(orch *orchestrator.Orchestrator, val *validator.Validator) *Handler {
	return &Handler{orch: orch, val: val}
}

// RegisterRoutes mounts assignment routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/lead/:leadId", h.ListForLead)
	rg.GET("/:id", h.GetAssignment)
	rg.POST("/:id/accept", h.Accept)
	rg.POST("/:id/decline", h.Decline)
}

// ListForLead returns the full offer history for a lead.
func (h *Handler) ListForLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	assignments, err := h.orch.ListForLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, transport.ToAssignmentResponse(a))
	}
	httpkit.OK(c, out)
}

// GetAssignment returns one assignment.
func (h *Handler) GetAssignment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	a, err := h.orch.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToAssignmentResponse(a))
}

// Accept applies an acceptance on behalf of the offered agent.
func (h *Handler) Accept(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	a, err := h.orch.Accept(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToAssignmentResponse(a))
}

// Decline applies a decline on behalf of the offered agent.
func (h *Handler) Decline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.DeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow an empty body for a decline without reason.
		req = transport.DeclineRequest{}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	a, err := h.orch.Decline(c.Request.Context(), id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToAssignmentResponse(a))
}
