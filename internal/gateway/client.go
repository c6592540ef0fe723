package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTimeout = 30 * time.Second

// Config carries the gateway endpoint and credentials. It is injected
// at construction; the client never reads ambient state.
type Config struct {
	BaseURL string
	// PGKey signs the JWT payload attached to every request.
	PGKey string
	// APIKey is the bearer credential for create-collect-request.
	APIKey  string
	Timeout time.Duration
}

// Client performs outbound calls to the school payment gateway.
type Client struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		client: &http.Client{Timeout: timeout},
		config: config,
		logger: logger,
	}
}

// CollectRequest is the gateway's create-collect-request response.
// Field names are part of the wire contract, including the
// capitalized Collect_request_url.
type CollectRequest struct {
	CollectRequestID string `json:"collect_request_id"`
	PaymentURL       string `json:"Collect_request_url"`
	Sign             string `json:"sign"`
}

// CollectStatus is the gateway's collect-request status response,
// returned verbatim to callers.
type CollectStatus struct {
	Status  string          `json:"status"`
	Amount  float64         `json:"amount"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Sign produces the signed payload for a gateway call: an HS256 JWT
// over the given claims using the server-held PG key.
func (c *Client) Sign(claims map[string]interface{}) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claims))
	signed, err := token.SignedString([]byte(c.config.PGKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign gateway payload: %w", err)
	}
	return signed, nil
}

// CreateCollectRequest asks the gateway to open a payment-collection
// transaction. The request body carries the exact field set the
// gateway expects: school_id, amount, callback_url, sign.
func (c *Client) CreateCollectRequest(ctx context.Context, schoolID, amount, callbackURL string) (*CollectRequest, error) {
	sign, err := c.Sign(map[string]interface{}{
		"school_id":    schoolID,
		"amount":       amount,
		"callback_url": callbackURL,
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{
		"school_id":    schoolID,
		"amount":       amount,
		"callback_url": callbackURL,
		"sign":         sign,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collect request: %w", err)
	}

	endpoint := c.config.BaseURL + "/create-collect-request"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	c.logger.Info("sending create-collect-request",
		"url", endpoint,
		"school_id", schoolID,
		"amount", amount)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("create-collect-request failed", "error", err, "school_id", schoolID)
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("gateway returned error",
			"status", resp.StatusCode,
			"response", string(respBody),
			"school_id", schoolID)
		return nil, fmt.Errorf("gateway error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	var collect CollectRequest
	if err := json.Unmarshal(respBody, &collect); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gateway response: %w", err)
	}

	c.logger.Info("collect request created",
		"collect_request_id", collect.CollectRequestID,
		"school_id", schoolID)

	return &collect, nil
}

// GetCollectRequestStatus looks up the gateway-side status of a
// collect request. It does not consult local storage.
func (c *Client) GetCollectRequestStatus(ctx context.Context, collectRequestID, schoolID string) (*CollectStatus, error) {
	sign, err := c.Sign(map[string]interface{}{
		"school_id":          schoolID,
		"collect_request_id": collectRequestID,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/collect-request/%s?school_id=%s&sign=%s",
		c.config.BaseURL, collectRequestID, url.QueryEscape(schoolID), url.QueryEscape(sign))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	c.logger.Info("fetching collect request status",
		"collect_request_id", collectRequestID,
		"school_id", schoolID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("status lookup failed", "error", err, "collect_request_id", collectRequestID)
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("gateway returned error",
			"status", resp.StatusCode,
			"response", string(respBody),
			"collect_request_id", collectRequestID)
		return nil, fmt.Errorf("gateway error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	var status CollectStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gateway response: %w", err)
	}

	return &status, nil
}
