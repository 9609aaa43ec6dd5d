// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP fetch capability used to pull remote
// image assets into a bundle.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultRetryDelay is the first backoff after an HTTP 429.
	DefaultRetryDelay = time.Second

	defaultMaxRetries = 2

	// maxRetryAfter caps a server-provided Retry-After so a single image
	// cannot stall a conversion.
	maxRetryAfter = 30 * time.Second
)

// do sends req and retries on HTTP 429 (Too Many Requests). The delay
// doubles from the client's retry delay on each attempt unless the server
// sends a Retry-After, which is honored up to maxRetryAfter.
//
// On each 429 the body is drained and closed before waiting. If ctx ends
// during a wait, ctx.Err() is returned. Once retries are exhausted the last
// 429 response is returned for the caller to report.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.http.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp.Header.Get("Retry-After"), time.Now())
		if wait < 0 {
			wait = c.retryDelay << attempt
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		c.logger.Debug("image host rate limited, retrying",
			"url", req.URL.String(), "wait", wait, "attempt", attempt+1, "max", c.maxRetries)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// retryAfter parses a Retry-After value given in seconds or as an HTTP
// date. It returns -1 when the header is absent or unparseable.
func retryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return -1
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = t.Sub(now)
	} else {
		return -1
	}
	if d < 0 {
		d = 0
	}
	return min(d, maxRetryAfter)
}
