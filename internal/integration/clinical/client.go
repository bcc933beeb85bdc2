// Package clinical talks to the practice-management system that records
// completed procedures. It is the upstream source of every billing run.
package clinical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrCaseNotFound indicates the clinical system has no record for the case id.
var ErrCaseNotFound = errors.New("case not found in clinical system")

// ProcedureEvent is a completed dental procedure as reported by the clinical
// system: what was done, to whom, by whom, and what it cost the practice.
type ProcedureEvent struct {
	PatientID            string    `json:"patient_id"`
	ProcedureCode        string    `json:"procedure_code"`
	ProcedureDescription string    `json:"procedure_description"`
	ProviderID           string    `json:"provider_id"`
	CompletionDate       time.Time `json:"completion_date"`
	InternalCost         float64   `json:"internal_cost"`
}

// Client fetches procedure data over the clinical system's HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

// NewClient creates a clinical-system client. The timeout bounds each fetch;
// a timed-out fetch is a terminal failure for the run that requested it.
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		logger:     logger,
	}
}

// FetchProcedure retrieves the completed-procedure event for a case id.
func (c *Client) FetchProcedure(ctx context.Context, caseID string) (*ProcedureEvent, error) {
	url := fmt.Sprintf("%s/procedures/%s", c.baseURL, caseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build clinical request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("case_id", caseID).Msg("clinical system unreachable")
		return nil, fmt.Errorf("fetch clinical data for case %s: %w", caseID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrCaseNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error().Int("status", resp.StatusCode).Str("case_id", caseID).
			Msg("clinical system returned non-2xx")
		return nil, fmt.Errorf("clinical system returned status %d for case %s", resp.StatusCode, caseID)
	}

	var ev ProcedureEvent
	if err := json.NewDecoder(resp.Body).Decode(&ev); err != nil {
		return nil, fmt.Errorf("decode clinical response for case %s: %w", caseID, err)
	}
	if ev.PatientID == "" || ev.ProcedureCode == "" {
		return nil, fmt.Errorf("clinical data for case %s is missing required fields", caseID)
	}
	return &ev, nil
}
