package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clinic-portal-server/internal/models"
)

// AdminClient talks to the admin backend. Its actions authenticate per call:
// the admin's credentials ride along in the request body, mirroring the
// backend's contract.
type AdminClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewAdminClient creates an admin backend client.
func NewAdminClient(baseURL string, timeout time.Duration, log zerolog.Logger) *AdminClient {
	return &AdminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "upstream_admin").Logger(),
	}
}

// FetchClinics returns the full clinic directory.
func (c *AdminClient) FetchClinics(ctx context.Context) ([]models.ClinicAccount, error) {
	const op = "fetch clinics"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/action/clinics", nil)
	if err != nil {
		return nil, &Error{Kind: KindFetch, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindFetch, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &Error{Kind: KindFetch, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(detail)))}
	}

	var clinics []models.ClinicAccount
	if err := json.NewDecoder(resp.Body).Decode(&clinics); err != nil {
		return nil, &Error{Kind: KindFetch, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return clinics, nil
}

// SetClinicActive activates or deactivates a clinic account.
func (c *AdminClient) SetClinicActive(ctx context.Context, clinicID string, active bool, creds Credentials) error {
	action := "deactivate"
	if active {
		action = "activate"
	}
	op := action + " clinic"

	payload, err := json.Marshal(creds)
	if err != nil {
		return &Error{Kind: KindAdmin, Op: op, Err: err}
	}

	url := fmt.Sprintf("%s/action/%s/%s", c.baseURL, action, clinicID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return &Error{Kind: KindAdmin, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindAdmin, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &Error{Kind: KindAdmin, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(detail)))}
	}

	c.log.Info().Str("clinic_id", clinicID).Bool("active", active).Msg("clinic activation updated")
	return nil
}
