// Package client is the HTTP client for the trigger backend API.
//
// The endpoint handler uses it to register itself, register triggers and
// schedules, send events, update webhook sources, and record task
// progress for a run.
//
// Usage:
//
//	c := client.New("https://api.trigger.dev", apiKey,
//	    client.WithLogger(logger),
//	    client.WithRateLimit(20, 5),
//	)
//	rec, err := c.SendEvent(ctx, event.Send{Name: "user.created", Payload: u}, nil)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/trigger"
	"github.com/xraph/trigger/backoff"
)

// Client talks to the trigger backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	backoff    backoff.Strategy
	maxRetries int
}

// New creates a client for the backend at baseURL authenticated by apiKey.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		limiter:    rate.NewLimiter(rate.Inf, 0),
		backoff:    backoff.DefaultStrategy(),
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend URL the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// APIError is a non-retryable error response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trigger/client: backend returned %d: %s", e.Status, e.Message)
}

// do sends one JSON request, retrying transport failures, 429 and 5xx
// responses with backoff. out may be nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("trigger/client: marshal %s %s: %w", method, path, err)
		}
		body = raw
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying backend request",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.String("error", lastErr.Error()),
			)
			if err := backoff.Wait(ctx, c.backoff, attempt); err != nil {
				return err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retry, err := c.send(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}

	c.logger.Warn("backend request failed",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", lastErr.Error()),
	)
	return fmt.Errorf("%w: %s %s: %w", trigger.ErrBackendUnavailable, method, path, lastErr)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, out any) (bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, fmt.Errorf("trigger/client: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	case resp.StatusCode >= 400:
		return false, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("trigger/client: decode %s %s: %w", method, path, err)
	}
	return false, nil
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
