// Package alertapi polls another risk service instance for its active alerts.
package alertapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/domain"
)

// Client implements alertstore.Source over the GET /api/weather/alerts endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the alert producer at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// envelope is the producer's response body. Alerts are decoded one by one so
// a single malformed record does not discard the whole set.
type envelope struct {
	Alerts      []json.RawMessage `json:"alerts"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// FetchActiveAlerts retrieves the producer's current alert set. Transport
// failures, non-200 responses and undecodable bodies wrap
// domain.ErrSourceUnavailable.
func (c *Client) FetchActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/weather/alerts", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch alerts: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrSourceUnavailable, resp.StatusCode, body)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrSourceUnavailable, err)
	}

	alerts := make([]domain.Alert, 0, len(env.Alerts))
	for i, raw := range env.Alerts {
		var a domain.Alert
		if err := json.Unmarshal(raw, &a); err != nil {
			c.logger.Warn("skipping undecodable alert", "index", i, "error", err)
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}
