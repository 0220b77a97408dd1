package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clinic-portal-server/internal/middleware"
	"clinic-portal-server/internal/models"
	"clinic-portal-server/internal/session"
	"clinic-portal-server/internal/upstream"
	"clinic-portal-server/internal/utils"
	"clinic-portal-server/internal/viewstate"
)

// maxReportSize caps report uploads accepted from the browser.
const maxReportSize = 10 << 20

// AppointmentHandler serves the appointments dashboard: status/window
// filtered lists, the upcoming view, and the edit-session workflow behind the
// detail modal.
type AppointmentHandler struct {
	Upstream *upstream.Client
	Sessions *session.Manager
	Log      zerolog.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(client *upstream.Client, sessions *session.Manager, log zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{Upstream: client, Sessions: sessions, Log: log}
}

// clientFor scopes the upstream client to the caller's session token.
func (h *AppointmentHandler) clientFor(c *gin.Context) *upstream.Client {
	token, _ := middleware.TokenFromContext(c)
	return h.Upstream.WithToken(token)
}

// List handles GET /appointments/:status. The status filter picks the
// server-side subset to fetch; the optional window query re-filters the
// fetched set client-side.
func (h *AppointmentHandler) List(c *gin.Context) {
	filter, ok := models.ParseStatusFilter(c.Param("status"))
	if !ok {
		utils.BadRequest(c, "Unknown status filter: "+c.Param("status"))
		return
	}
	window, ok := viewstate.ParseTimeWindow(c.Query("window"))
	if !ok {
		utils.BadRequest(c, "Unknown time window: "+c.Query("window"))
		return
	}

	appointments, err := h.clientFor(c).FetchAppointments(c.Request.Context(), filter)
	if err != nil {
		utils.FromError(c, err)
		return
	}

	displayed := viewstate.Derive(appointments, window, time.Now())
	utils.Success(c, "Appointments fetched successfully", gin.H{
		"appointments": displayed,
		"count":        len(displayed),
	})
}

// Upcoming handles GET /appointments/upcoming: future, non-cancelled,
// non-completed appointments sorted ascending by date.
func (h *AppointmentHandler) Upcoming(c *gin.Context) {
	appointments, err := h.clientFor(c).FetchAppointments(c.Request.Context(), models.FilterAll)
	if err != nil {
		utils.FromError(c, err)
		return
	}

	upcoming := viewstate.Upcoming(appointments, time.Now())
	utils.Success(c, "Upcoming appointments fetched successfully", gin.H{
		"appointments": upcoming,
		"count":        len(upcoming),
	})
}

// OpenSessionRequest names the appointment an edit session is opened for.
type OpenSessionRequest struct {
	AppointmentID string `json:"appointmentId" binding:"required"`
}

// OpenSession handles POST /sessions: it seeds an edit session from the
// current server record, replacing any idle session the clinic already has
// (one modal at a time).
func (h *AppointmentHandler) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	client := h.clientFor(c)
	appointments, err := client.FetchAppointments(c.Request.Context(), models.FilterAll)
	if err != nil {
		utils.FromError(c, err)
		return
	}

	var target *models.Appointment
	for i := range appointments {
		if appointments[i].ID == req.AppointmentID {
			target = &appointments[i]
			break
		}
	}
	if target == nil {
		utils.NotFound(c, "Appointment not found: "+req.AppointmentID)
		return
	}

	token, _ := middleware.TokenFromContext(c)
	sess := session.New(*target, client, client)
	if err := h.Sessions.Open(token, sess); err != nil {
		utils.FromError(c, err)
		return
	}

	h.Log.Debug().Str("session_id", sess.ID()).Str("appointment_id", target.ID).Msg("edit session opened")
	utils.Created(c, "Edit session opened", sessionView(sess))
}

// SelectFile handles POST /sessions/:sid/file. The file is held in the
// session; no network call happens until upload.
func (h *AppointmentHandler) SelectFile(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "A file form field is required")
		return
	}
	if header.Size > maxReportSize {
		utils.BadRequest(c, "Report file exceeds the 10MB limit")
		return
	}

	f, err := header.Open()
	if err != nil {
		utils.BadRequest(c, "Could not read uploaded file: "+err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		utils.BadRequest(c, "Could not read uploaded file: "+err.Error())
		return
	}

	file := session.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := sess.SelectFile(file); err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "File selected", sessionView(sess))
}

// Upload handles POST /sessions/:sid/upload: sends the pending file to the
// report-upload collaborator.
func (h *AppointmentHandler) Upload(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}

	url, err := sess.Upload(c.Request.Context())
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Report uploaded successfully", gin.H{
		"clinicReportUrl": url,
		"session":         sessionView(sess),
	})
}

// UpdateDraftRequest mutates exactly one editable field of the draft.
type UpdateDraftRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// UpdateDraft handles PATCH /sessions/:sid/draft.
func (h *AppointmentHandler) UpdateDraft(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}

	var req UpdateDraftRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if err := sess.UpdateField(req.Field, req.Value); err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Draft updated", sessionView(sess))
}

// Save handles POST /sessions/:sid/save: posts the full draft and responds
// with the canonical record for the caller to merge into its collection. The
// session completes on success; on failure it stays open so edits survive.
func (h *AppointmentHandler) Save(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}

	updated, err := sess.Save(c.Request.Context())
	if err != nil {
		utils.FromError(c, err)
		return
	}

	h.Sessions.Release(sess)
	h.Log.Debug().Str("session_id", sess.ID()).Str("appointment_id", updated.ID).Msg("edit session saved")
	utils.Success(c, "Appointment updated successfully", updated)
}

// CloseSession handles DELETE /sessions/:sid. Only an idle session may be
// discarded.
func (h *AppointmentHandler) CloseSession(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		return
	}

	if err := sess.Close(); err != nil {
		utils.FromError(c, err)
		return
	}
	h.Sessions.Release(sess)
	utils.Success(c, "Session closed", nil)
}

// sessionFrom resolves the :sid parameter to a session owned by the caller.
// Sessions belonging to other tokens are indistinguishable from missing ones.
func (h *AppointmentHandler) sessionFrom(c *gin.Context) (*session.EditSession, bool) {
	id := c.Param("sid")
	sess, ok := h.Sessions.Get(id)
	if !ok {
		utils.NotFound(c, "No such edit session")
		return nil, false
	}
	token, _ := middleware.TokenFromContext(c)
	if sess.Owner() != token {
		utils.NotFound(c, "No such edit session")
		return nil, false
	}
	return sess, true
}

// sessionView is the JSON shape of a session returned to the browser.
func sessionView(s *session.EditSession) gin.H {
	return gin.H{
		"sessionId":      s.ID(),
		"appointmentId":  s.AppointmentID(),
		"phase":          s.Phase(),
		"draft":          s.Draft(),
		"hasPendingFile": s.HasPendingFile(),
		"uploaded":       s.Uploaded(),
	}
}
