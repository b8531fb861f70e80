package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sentinel errors.
var (
	// ErrLiveTradingBlocked is returned when live mode is requested
	// without both the env opt-in and the explicit caller confirmation.
	ErrLiveTradingBlocked = errors.New("live trading blocked")

	// ErrInvalidOrder is returned for orders that fail local validation.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrShortingNotAllowed is returned for sell orders that would open
	// a short position under a long-only configuration.
	ErrShortingNotAllowed = errors.New("shorting not allowed")
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Config configures the broker client.
type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string

	// Paper selects the paper-trading account. Live mode additionally
	// requires LiveTradingAllowed (env opt-in) and ConfirmLiveRisk (an
	// explicit acknowledgement from the caller, e.g. a CLI flag).
	Paper              bool
	LiveTradingAllowed bool
	ConfirmLiveRisk    bool

	// LongOnly rejects sell orders that do not close an existing position.
	LongOnly bool
}

// Client is a REST trading client with retry and backoff.
type Client struct {
	baseURL     string
	apiKey      string
	secretKey   string
	longOnly    bool
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a broker client, enforcing the live-trading gate
// before anything touches the network.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if !cfg.Paper {
		if !cfg.LiveTradingAllowed {
			return nil, fmt.Errorf("%w: ALLOW_LIVE_TRADING not set in environment", ErrLiveTradingBlocked)
		}
		if !cfg.ConfirmLiveRisk {
			return nil, fmt.Errorf("%w: explicit live-risk confirmation required", ErrLiveTradingBlocked)
		}
	}

	c := &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		secretKey:   cfg.SecretKey,
		longOnly:    cfg.LongOnly,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// apiError is an error body returned by the trading API.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// do performs a request with retries and exponential backoff. Client
// errors (4xx) are returned immediately; 429 and transport failures
// are retried.
func (c *Client) do(ctx context.Context, method, path string, reqBody, result interface{}) error {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("APCA-API-KEY-ID", c.apiKey)
		req.Header.Set("APCA-API-SECRET-KEY", c.secretKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			var apiErr apiError
			if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
				return &apiErr
			}
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
