package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/upstream"
	"clinic-portal-server/internal/utils"
)

// TermsHandler serves the terms-acceptance gate. Consent state is owned by
// the backend and queried through the collaborator, not kept in browser
// storage, so the gate survives device changes.
type TermsHandler struct {
	Upstream *upstream.Client
}

// NewTermsHandler creates a new TermsHandler.
func NewTermsHandler(client *upstream.Client) *TermsHandler {
	return &TermsHandler{Upstream: client}
}

// Status handles GET /terms: whether the clinic has accepted the terms.
func (h *TermsHandler) Status(c *gin.Context) {
	token, _ := middleware.TokenFromContext(c)
	status, err := h.Upstream.WithToken(token).TermsAccepted(c.Request.Context())
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Terms status fetched", status)
}

// Accept handles POST /terms/accept: records the one-time consent.
func (h *TermsHandler) Accept(c *gin.Context) {
	token, _ := middleware.TokenFromContext(c)
	if err := h.Upstream.WithToken(token).AcceptTerms(c.Request.Context()); err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Terms accepted", nil)
}
