// Package payments provides a client for the external payment gateway.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avasquez/catador/internal/logger"
)

// ErrUnknownOutcome is returned when the gateway did not answer in time.
// The charge may or may not have gone through; callers must retry with the
// SAME idempotency key and never treat this as a definitive failure.
var ErrUnknownOutcome = errors.New("payment outcome unknown: gateway did not respond")

// ErrDeclined is returned when the gateway definitively rejected the charge.
var ErrDeclined = errors.New("payment declined")

// Charge describes one sample-fee payment request
type Charge struct {
	IdempotencyKey string  `json:"idempotency_key"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Reference      string  `json:"reference"`
}

// Receipt is the gateway's confirmation of a settled charge
type Receipt struct {
	TransactionID string    `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	SettledAt     time.Time `json:"settled_at"`
}

type chargeResponse struct {
	Status        string  `json:"status"` // settled, declined
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	SettledAt     string  `json:"settled_at"`
	Reason        string  `json:"reason,omitempty"`
}

// Client defines the interface for payment gateway operations
type Client interface {
	// ConfirmPayment charges the sample fee. The idempotency key makes
	// retries safe: the gateway settles a given key at most once.
	ConfirmPayment(ctx context.Context, charge Charge) (*Receipt, error)
}

// HTTPClient is the real gateway client
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new payment gateway client
func NewHTTPClient(baseURL string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// NewHTTPClientWithHTTPClient creates a client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        log,
	}
}

// ConfirmPayment implements Client
func (c *HTTPClient) ConfirmPayment(ctx context.Context, charge Charge) (*Receipt, error) {
	if charge.IdempotencyKey == "" {
		return nil, errors.New("idempotency key is required")
	}
	if charge.Currency == "" {
		charge.Currency = "USD"
	}

	payload, err := json.Marshal(charge)
	if err != nil {
		return nil, fmt.Errorf("failed to encode charge: %w", err)
	}

	apiURL := c.baseURL + "/v1/charges"
	c.log.Debug("payment request", "url", apiURL, "reference", charge.Reference, "amount", charge.Amount)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", charge.IdempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeout or transport failure. The gateway may have settled the
		// charge anyway, so the outcome is unknown rather than failed.
		c.log.Warn("payment gateway unreachable", "error", err)
		return nil, ErrUnknownOutcome
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrUnknownOutcome
	}

	if resp.StatusCode >= 500 {
		c.log.Warn("payment gateway error", "status", resp.StatusCode, "body", string(body))
		return nil, ErrUnknownOutcome
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chargeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	if parsed.Status == "declined" {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, parsed.Reason)
	}
	if parsed.Status != "settled" {
		return nil, fmt.Errorf("unexpected gateway status %q", parsed.Status)
	}

	settledAt, _ := time.Parse(time.RFC3339, parsed.SettledAt)
	return &Receipt{
		TransactionID: parsed.TransactionID,
		Amount:        parsed.Amount,
		SettledAt:     settledAt,
	}, nil
}
