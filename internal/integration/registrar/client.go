// Package registrar pushes finished invoices to the practice's external
// billing software. Registration is best-effort: a failure here must never
// block internal tracking, so the caller treats any error as a degraded
// (locally identified) invoice rather than a terminal failure.
package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Draft is the outbound invoice payload sent to the billing software.
type Draft struct {
	PatientID     string    `json:"patient_id"`
	ProcedureCode string    `json:"procedure_code"`
	ChargeAmount  float64   `json:"charge_amount"`
	CostAmount    float64   `json:"cost_amount"`
	PaymentStatus string    `json:"payment_status"`
	BillingDate   time.Time `json:"billing_date"`
}

// Client performs the single outbound registration call. A circuit breaker
// sheds calls while the billing software is hard-down; within one pipeline
// run there is still exactly one attempt and no retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	logger     zerolog.Logger
}

// NewClient creates a registrar client with the given per-call timeout.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "billing-registrar",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		cb:         cb,
		logger:     logger,
	}
}

// Register submits the draft and returns the external system's reference id.
func (c *Client) Register(ctx context.Context, draft *Draft) (string, error) {
	ref, err := c.cb.Execute(func() (interface{}, error) {
		return c.register(ctx, draft)
	})
	if err != nil {
		return "", err
	}
	return ref.(string), nil
}

func (c *Client) register(ctx context.Context, draft *Draft) (string, error) {
	payload, err := json.Marshal(draft)
	if err != nil {
		return "", fmt.Errorf("marshal invoice draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoices", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build registrar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("billing registrar unreachable")
		return "", fmt.Errorf("register external invoice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn().Int("status", resp.StatusCode).Msg("billing registrar returned non-2xx")
		return "", fmt.Errorf("billing registrar returned status %d", resp.StatusCode)
	}

	var body struct {
		ReferenceID string `json:"reference_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode registrar response: %w", err)
	}
	if body.ReferenceID == "" {
		return "", fmt.Errorf("billing registrar response had no reference_id")
	}

	c.logger.Info().Str("reference_id", body.ReferenceID).Msg("external invoice registered")
	return body.ReferenceID, nil
}
