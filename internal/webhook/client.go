package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gymlink/gymlink-relay/internal/infrastructure/config"
	"github.com/gymlink/gymlink-relay/internal/infrastructure/logging"
	"github.com/gymlink/gymlink-relay/internal/relay"
)

// maxErrorBodyBytes bounds how much of an error response body is captured
// for logging.
const maxErrorBodyBytes = 512

// eventPayload is the JSON body posted to the cloud endpoint. The shared
// webhook secret travels in the body, matching what the endpoint expects.
type eventPayload struct {
	Type      string    `json:"type"`
	UserID    int64     `json:"userId"`
	GymID     string    `json:"gymId"`
	Timestamp time.Time `json:"timestamp"`
	Secret    string    `json:"secret"`
}

// Client posts hardware events to the cloud persistence endpoint with
// bounded retries.
type Client struct {
	url        string
	secret     string
	maxRetries int
	baseDelay  time.Duration
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a webhook client from configuration.
//
// The per-attempt timeout is enforced by the underlying HTTP client, so a
// hung endpoint cannot stall a delivery worker beyond it.
func NewClient(cfg config.WebhookConfig, logger *logging.Logger) *Client {
	return &Client{
		url:        cfg.URL,
		secret:     cfg.Secret,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.GetBaseDelay(),
		httpClient: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		logger: logger,
	}
}

// LogEvent delivers one hardware event, retrying on failure.
//
// Any 2xx response counts as delivered. Each failed attempt is logged at
// warn level; before attempt n+1 the client waits n times the base delay.
// When all attempts fail the last error is returned wrapped in
// ErrDeliveryFailed.
func (c *Client) LogEvent(ctx context.Context, ev relay.HardwareEvent) error {
	body, err := json.Marshal(eventPayload{
		Type:      ev.Type,
		UserID:    ev.UserID,
		GymID:     ev.GymID,
		Timestamp: ev.Timestamp.UTC(),
		Secret:    c.secret,
	})
	if err != nil {
		return fmt.Errorf("encoding event payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.post(ctx, body)
		if lastErr == nil {
			if attempt > 1 {
				c.logger.Info("event delivered after retry",
					"gym_id", ev.GymID, "event_type", ev.Type, "attempt", attempt)
			}
			return nil
		}

		c.logger.Warn("event delivery attempt failed",
			"gym_id", ev.GymID, "event_type", ev.Type,
			"attempt", attempt, "max_attempts", c.maxRetries, "error", lastErr)

		if attempt == c.maxRetries {
			break
		}

		// Linear backoff: 1x, 2x, 3x the base delay and so on.
		select {
		case <-time.After(time.Duration(attempt) * c.baseDelay):
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrDeliveryFailed, ctx.Err())
		}
	}

	return fmt.Errorf("%w: %d attempts: %v", ErrDeliveryFailed, c.maxRetries, lastErr)
}

// post performs a single delivery attempt.
func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Capture a bounded slice of the body so endpoint errors are diagnosable.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)) //nolint:errcheck // best-effort diagnostics
	return fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, snippet)
}
