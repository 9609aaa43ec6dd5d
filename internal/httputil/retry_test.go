// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docbundle/pkg/types"
)

// rateLimitedServer answers 429 for the first limited requests and then
// serves a PNG body.
func rateLimitedServer(t *testing.T, limited int32, header http.Header) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= limited {
			for k, v := range header {
				w.Header()[k] = v
			}
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNG"))
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func testClient(ts *httptest.Server, cfg types.HTTPConfig) (*Client, *bytes.Buffer) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	return NewClientWith(ts.Client(), cfg, logger), &logs
}

func TestFetch_RateLimitedThenServed(t *testing.T) {
	ts, calls := rateLimitedServer(t, 2, nil)
	c, logs := testClient(ts, types.HTTPConfig{MaxRetries: 3})

	resp, err := c.Fetch(context.Background(), ts.URL+"/chart.png")
	require.NoError(t, err)

	assert.Equal(t, []byte("PNG"), resp.Body)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Equal(t, 2, bytes.Count(logs.Bytes(), []byte("image host rate limited")))
}

func TestFetch_RateLimitExhausted(t *testing.T) {
	ts, calls := rateLimitedServer(t, 100, nil)
	c, _ := testClient(ts, types.HTTPConfig{MaxRetries: 3})

	_, err := c.Fetch(context.Background(), ts.URL+"/chart.png")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	// One request plus three retries.
	assert.Equal(t, int32(4), atomic.LoadInt32(calls))
}

func TestFetch_DefaultRetries(t *testing.T) {
	ts, calls := rateLimitedServer(t, 100, nil)
	c, _ := testClient(ts, types.HTTPConfig{})

	_, err := c.Fetch(context.Background(), ts.URL+"/chart.png")
	require.Error(t, err)
	assert.Equal(t, int32(1+defaultMaxRetries), atomic.LoadInt32(calls))
}

func TestFetch_RetryAfterOverridesBackoff(t *testing.T) {
	ts, calls := rateLimitedServer(t, 1, http.Header{"Retry-After": {"0"}})
	c, _ := testClient(ts, types.HTTPConfig{MaxRetries: 1, RetryDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.Fetch(ctx, ts.URL+"/chart.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("PNG"), resp.Body)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestFetch_CancelledDuringBackoff(t *testing.T) {
	ts, _ := rateLimitedServer(t, 100, nil)
	c, _ := testClient(ts, types.HTTPConfig{MaxRetries: 5, RetryDelay: 500 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, ts.URL+"/chart.png")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetch_ServerErrorNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	c, _ := testClient(ts, types.HTTPConfig{MaxRetries: 5})

	_, err := c.Fetch(context.Background(), ts.URL+"/chart.png")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"absent", "", -1},
		{"seconds", "5", 5 * time.Second},
		{"capped", "600", maxRetryAfter},
		{"negative", "-3", 0},
		{"http date", now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{"date in the past", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryAfter(tt.value, now))
		})
	}
}
