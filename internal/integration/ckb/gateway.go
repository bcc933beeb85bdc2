// Package ckb publishes finalized financial reports to the Central Knowledge
// Base, the practice group's shared reporting warehouse.
package ckb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/reports"
)

const defaultTimeout = 10 * time.Second

// Gateway is an HTTP client for the CKB ingest endpoint. Publishing is
// best-effort from the caller's point of view: a failure here never affects
// locally stored invoices or reports.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     zerolog.Logger
}

func NewGateway(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
		logger:     logger,
	}
}

// PushMonthlyRevenue uploads a monthly revenue report. CKB acknowledges with
// 200 or 201; anything else is an error.
func (g *Gateway) PushMonthlyRevenue(ctx context.Context, report *reports.MonthlyRevenue) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode monthly revenue report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/financial-reports", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build CKB request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CKB-Token", g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.Error().Err(err).Msg("CKB publish failed")
		return fmt.Errorf("push report to CKB: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.logger.Error().Int("status", resp.StatusCode).Msg("CKB rejected report")
		return fmt.Errorf("CKB returned status %d: %s", resp.StatusCode, snippet)
	}

	g.logger.Info().Str("month", report.MonthYear).Msg("monthly revenue report published to CKB")
	return nil
}
