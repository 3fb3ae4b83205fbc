// Package cursor provides the Cursor Admin API client.
// It handles basic-auth requests, pagination, throttling, and retry
// with exponential backoff on rate-limit responses.
package cursor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/artpar/teamlens/adapters/metrics"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production Admin API endpoint.
const DefaultBaseURL = "https://api.cursor.com"

// ErrRetriesExhausted is returned when a rate-limited request still
// fails after the configured number of attempts.
var ErrRetriesExhausted = errors.New("rate limit retries exhausted")

// APIError represents a non-2xx response from the Admin API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("admin api error %d: %s", e.StatusCode, e.Body)
}

// IsRateLimited returns true if the error is a 429 response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// Config configures the Admin API client.
type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	PageSize     int
	RequestDelay time.Duration // inter-page throttle
	MaxRetries   int           // attempts per request on 429
	RetryBase    time.Duration // first backoff wait, doubled per attempt

	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// Client talks to the Cursor Admin API. The API key is sent as the
// basic-auth username with an empty password on every request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	maxRetries int
	retryBase  time.Duration
	delay      time.Duration
	logger     zerolog.Logger
	metrics    *metrics.Collector
}

// NewClient creates a new Admin API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("cursor: API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = 100
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 5
	}
	retryBase := cfg.RetryBase
	if retryBase == 0 {
		retryBase = time.Second
	}
	delay := cfg.RequestDelay
	if delay == 0 {
		delay = 3 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		pageSize:   pageSize,
		maxRetries: maxRetries,
		retryBase:  retryBase,
		delay:      delay,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}, nil
}

// request sends an authenticated JSON request and decodes the response.
// 429 responses are retried with exponential backoff inside a bounded
// loop; any other non-2xx status is returned as *APIError.
func (c *Client) request(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = data
	}

	backoff := c.retryBase
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.SetBasicAuth(c.apiKey, "")
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if c.metrics != nil {
				c.metrics.RateLimitRetries.Inc()
			}
			c.logger.Warn().
				Str("path", path).
				Int("attempt", attempt+1).
				Dur("wait", backoff).
				Msg("rate limited, backing off")

			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				resp.Body.Close()
				return fmt.Errorf("decode response: %w", err)
			}
		}
		resp.Body.Close()
		return nil
	}

	return fmt.Errorf("%s after %d attempts: %w", path, c.maxRetries, ErrRetriesExhausted)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
