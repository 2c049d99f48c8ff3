// Package httpclient wraps net/http for calls to downstream collaborators.
// Every call carries a bounded timeout, a correlation call-id header, an
// optional bearer credential, and a small constant-backoff retry budget.
// 4xx responses are terminal; network errors and 5xx responses are retried.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"syfooversiktsrv/pkg/platform/circuit"
	"syfooversiktsrv/pkg/platform/sentinel"
)

// HeaderCallID is the correlation header attached to every outbound request.
const HeaderCallID = "Nav-Call-Id"

// TokenProvider supplies a bearer credential for outbound calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StatusError reports a non-2xx response. Callers can inspect Code to
// distinguish client errors (terminal) from server errors (already retried).
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client is a shared JSON-over-HTTP client for downstream services.
type Client struct {
	http       *http.Client
	maxRetries int
	backoff    time.Duration
	breaker    *circuit.Breaker
	tokens     TokenProvider
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each individual request attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithMaxRetries sets how many times a failed attempt is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the constant delay between retry attempts.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithBreaker guards calls with a circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithTokenProvider attaches bearer credentials to every request.
func WithTokenProvider(tp TokenProvider) Option {
	return func(c *Client) { c.tokens = tp }
}

// New constructs a client with a 10s per-attempt timeout, 2 retries and 1s backoff.
func New(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: 10 * time.Second},
		maxRetries: 2,
		backoff:    time.Second,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET and decodes a 2xx response body into out (if non-nil).
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

// PostJSON issues a POST with a JSON body and decodes a 2xx response into out.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	return c.do(ctx, http.MethodPost, url, in, out)
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	if c.breaker != nil && c.breaker.IsOpen() {
		return fmt.Errorf("%s circuit open: %w", c.breaker.Name(), sentinel.ErrUnavailable)
	}

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	callID := uuid.NewString()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
		}

		err := c.attempt(ctx, method, url, callID, body, out)
		if err == nil {
			if c.breaker != nil {
				c.breaker.RecordSuccess()
			}
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code < 500 {
			// Client errors are terminal; the collaborator itself is healthy.
			if c.breaker != nil {
				c.breaker.RecordSuccess()
			}
			return err
		}

		lastErr = err
		c.logger.Warn("outbound call failed",
			"method", method, "url", url, "callId", callID, "attempt", attempt+1, "error", err)
	}

	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
	return fmt.Errorf("%s %s after %d attempts: %w", method, url, c.maxRetries+1, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, url, callID string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderCallID, callID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("obtain bearer token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

