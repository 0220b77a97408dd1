// Package upstream holds the HTTP clients for the platform backends. The
// portal owns no business logic: it fetches state from these collaborators
// and posts edited state back. Every call carries a bounded timeout so a
// hanging backend cannot pin an edit session's phase.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clinic-portal-server/internal/models"
	"clinic-portal-server/internal/session"
)

// reportURLPattern extracts the stored artifact URL from the upload
// endpoint's plain-text response.
var reportURLPattern = regexp.MustCompile(`https://\S+`)

// Client talks to the clinic backend. Methods forward the caller's bearer
// token untouched; token verification is the backend's job.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a clinic backend client. The timeout is the ceiling for
// every call, uploads and saves included.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "upstream").Logger(),
	}
}

// WithToken returns a copy of the client scoped to the given bearer token.
func (c *Client) WithToken(token string) *Client {
	scoped := *c
	scoped.token = token
	return &scoped
}

// Credentials is a clinic's login identity.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the payload for registering a new clinic.
type Registration struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	ContactNo string `json:"contactNo"`
	Address   string `json:"address"`
	LicenseNo string `json:"licenseNo,omitempty"`
}

// AuthResult is the backend's response to login and register calls.
type AuthResult struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// TermsStatus is the externally owned consent state for a clinic.
type TermsStatus struct {
	Accepted   bool   `json:"accepted"`
	AcceptedAt string `json:"acceptedAt,omitempty"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", creds, &result, KindAuth, "login")
	return result, err
}

// Register creates a new clinic account.
func (c *Client) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	var result AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", reg, &result, KindAuth, "register")
	return result, err
}

// VerifyAuth asks the backend whether the scoped token is valid.
func (c *Client) VerifyAuth(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/auth/verify", nil, nil, KindAuth, "verify auth")
}

// FetchAppointments returns the full ordered collection matching the
// status-scoped selector. The backend responds with a bare JSON array.
func (c *Client) FetchAppointments(ctx context.Context, filter models.StatusFilter) ([]models.Appointment, error) {
	var appointments []models.Appointment
	path := "/appointments/" + string(filter)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &appointments, KindFetch, "fetch appointments"); err != nil {
		return nil, err
	}
	return appointments, nil
}

// UpdateAppointment posts the full editable field set and returns the
// canonical updated record. Satisfies session.AppointmentSaver.
func (c *Client) UpdateAppointment(ctx context.Context, appointmentID string, draft session.Draft) (models.Appointment, error) {
	var updated models.Appointment
	path := "/appointments/update/" + appointmentID
	err := c.doJSON(ctx, http.MethodPost, path, draft, &updated, KindSave, "update appointment")
	return updated, err
}

// UploadReport sends the file as a multipart form and returns the stored
// artifact URL extracted from the backend's text response. A success response
// with no extractable URL is an upload failure. Satisfies
// session.ReportUploader.
func (c *Client) UploadReport(ctx context.Context, appointmentID string, file session.FileUpload) (string, error) {
	const op = "upload report"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return "", &Error{Kind: KindUpload, Op: op, Err: err}
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", &Error{Kind: KindUpload, Op: op, Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &Error{Kind: KindUpload, Op: op, Err: err}
	}

	url := c.baseURL + "/appointments/upload-report/" + appointmentID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", &Error{Kind: KindUpload, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Kind: KindUpload, Op: op, Err: err}
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &Error{Kind: KindUpload, Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &Error{Kind: KindUpload, Op: op, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(text)))}
	}

	reportURL := reportURLPattern.FindString(string(text))
	if reportURL == "" {
		return "", &Error{Kind: KindUpload, Op: op, Err: errors.New("no report URL in upload response")}
	}

	c.log.Debug().Str("appointment_id", appointmentID).Str("report_url", reportURL).Msg("report uploaded")
	return reportURL, nil
}

// TermsAccepted returns the clinic's consent state.
func (c *Client) TermsAccepted(ctx context.Context) (TermsStatus, error) {
	var status TermsStatus
	err := c.doJSON(ctx, http.MethodGet, "/terms/status", nil, &status, KindTerms, "fetch terms status")
	return status, err
}

// AcceptTerms records the clinic's one-time consent.
func (c *Client) AcceptTerms(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/terms/accept", nil, nil, KindTerms, "accept terms")
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// doJSON performs a JSON request/response round trip, classifying every
// failure with the given kind.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, kind Kind, op string) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: kind, Op: op, Err: err}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: kind, Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Str("op", op).Err(err).Msg("backend call failed")
		return &Error{Kind: kind, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("backend call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &Error{
			Kind:       kind,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(detail))),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: kind, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
