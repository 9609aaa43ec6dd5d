// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pdiddy/docbundle/pkg/types"
)

// Response is a fetched remote resource.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// StatusError reports a non-success HTTP status from a fetch.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Fetcher retrieves remote resources.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Client is the production Fetcher backed by net/http.
type Client struct {
	http       *http.Client
	userAgent  string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient builds a Client from cfg. A zero Timeout leaves the
// transport default in place.
func NewClient(cfg types.HTTPConfig, logger *slog.Logger) *Client {
	return NewClientWith(&http.Client{Timeout: cfg.Timeout}, cfg, logger)
}

// NewClientWith wraps an existing http.Client, e.g. one from httptest.
// Zero retry settings take the package defaults.
func NewClientWith(hc *http.Client, cfg types.HTTPConfig, logger *slog.Logger) *Client {
	c := &Client{
		http:       hc,
		userAgent:  cfg.UserAgent,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.retryDelay <= 0 {
		c.retryDelay = DefaultRetryDelay
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Fetch GETs url and returns its body and declared content type. Any
// status outside 2xx is returned as a *StatusError.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body from %s: %w", url, err)
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
