package handler

import (
	"net/http"

	"leadrouter_backend/internal/assignments/orchestrator"
	"leadrouter_backend/internal/assignments/transport"
	"leadrouter_backend/platform/httpkit"
	"leadrouter_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// PublicHandler handles the unauthenticated, token-based offer response
// endpoints that agents reach from their notification link.
type PublicHandler struct {
	orch *orchestrator.Orchestrator
	val  *validator.Validator
}

func NewPublicHandler(orch *orchestrator.Orchestrator, val *validator.Validator) *PublicHandler {
	return &PublicHandler{orch: orch, val: val}
}

// RegisterRoutes mounts the public offer routes (no auth middleware).
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:token", h.GetOffer)
	rg.POST("/:token/accept", h.Accept)
	rg.POST("/:token/decline", h.Decline)
}

// GetOffer returns the agent-facing offer details.
func (h *PublicHandler) GetOffer(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	a, err := h.orch.GetByToken(c.Request.Context(), token)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToPublicOfferResponse(a))
}

// Accept processes the agent's acceptance via the public token.
func (h *PublicHandler) Accept(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	a, err := h.orch.AcceptByToken(c.Request.Context(), token)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToPublicOfferResponse(a))
}

// Decline processes the agent's decline via the public token.
func (h *PublicHandler) Decline(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.DeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = transport.DeclineRequest{}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	a, err := h.orch.DeclineByToken(c.Request.Context(), token, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToPublicOfferResponse(a))
}
