package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-portal-server/internal/upstream"
	"clinic-portal-server/internal/utils"
	"clinic-portal-server/internal/viewstate"
)

// AdminHandler serves the admin portal: the clinic directory with its
// activity filter, and activate/deactivate actions proxied to the admin
// backend.
type AdminHandler struct {
	Upstream *upstream.AdminClient
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(client *upstream.AdminClient) *AdminHandler {
	return &AdminHandler{Upstream: client}
}

// ListClinics handles GET /action/clinics. The optional activity query
// re-filters the fetched directory client-side, like the appointment time
// window.
func (h *AdminHandler) ListClinics(c *gin.Context) {
	filter, ok := viewstate.ParseActivityFilter(c.Query("activity"))
	if !ok {
		utils.BadRequest(c, "Unknown activity filter: "+c.Query("activity"))
		return
	}

	clinics, err := h.Upstream.FetchClinics(c.Request.Context())
	if err != nil {
		utils.FromError(c, err)
		return
	}

	displayed := viewstate.FilterClinics(clinics, filter)
	utils.Success(c, "Clinics fetched successfully", gin.H{
		"clinics": displayed,
		"count":   len(displayed),
	})
}

// AdminActionRequest carries the admin credentials the backend demands on
// every activation change.
type AdminActionRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Activate handles POST /action/activate/:id.
func (h *AdminHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate handles POST /action/deactivate/:id.
func (h *AdminHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *AdminHandler) setActive(c *gin.Context, active bool) {
	var req AdminActionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	creds := upstream.Credentials{Email: req.Email, Password: req.Password}
	if err := h.Upstream.SetClinicActive(c.Request.Context(), c.Param("id"), active, creds); err != nil {
		utils.FromError(c, err)
		return
	}

	message := "Clinic deactivated successfully"
	if active {
		message = "Clinic activated successfully"
	}
	utils.Success(c, message, gin.H{"id": c.Param("id"), "isActive": active})
}
