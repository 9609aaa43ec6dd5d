// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docbundle/pkg/types"
)

func TestClientFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/logo.png":
			assert.Equal(t, "docbundle-test", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("PNGDATA"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	c := NewClientWith(ts.Client(), types.HTTPConfig{UserAgent: "docbundle-test", MaxRetries: 1}, nil)

	resp, err := c.Fetch(context.Background(), ts.URL+"/logo.png")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Equal(t, []byte("PNGDATA"), resp.Body)

	_, err = c.Fetch(context.Background(), ts.URL+"/missing.png")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestClientFetch_BadURL(t *testing.T) {
	c := NewClient(types.HTTPConfig{}, nil)
	_, err := c.Fetch(context.Background(), "http://[::1]:namedport/x.png")
	assert.Error(t, err)
}
