package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single feed fetch.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a feed body is read.
const maxBodyBytes = 64 << 20

var (
	// ErrBlocked is returned when a retailer answers 403, typically bot
	// protection in front of the feed.
	ErrBlocked = errors.New("feed blocked")
	// ErrStatus is returned for any other non-2xx response.
	ErrStatus = errors.New("unexpected status code")
)

// StatusError carries the HTTP status and a snippet of the response body.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Unwrap lets callers match ErrBlocked or ErrStatus with errors.Is.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusForbidden {
		return ErrBlocked
	}
	return ErrStatus
}

// Client is the shared HTTP client for all retailer feeds.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client. A zero timeout uses DefaultTimeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Get performs one GET against a feed URL with the given headers and
// returns the body. Non-2xx responses return a *StatusError.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(body, 200)}
	}
	return body, nil
}

// truncate returns a truncated string representation for log messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
