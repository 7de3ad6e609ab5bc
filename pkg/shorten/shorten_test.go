package shorten

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortenWithoutKey(t *testing.T) {
	c := New(nil, "")
	_, err := c.Shorten(context.Background(), "https://go.dev")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestShortenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"link": "https://bit.ly/abc123"}`))
	}))
	defer srv.Close()

	c := New(srv.Client(), "test-key", WithEndpoint(srv.URL))
	short, err := c.Shorten(context.Background(), "https://go.dev/blog/some/long/path")
	require.NoError(t, err)
	assert.Equal(t, "https://bit.ly/abc123", short)
}

func TestShortenFallsBackOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.Client(), "test-key", WithEndpoint(srv.URL))
	short, err := c.Shorten(context.Background(), "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "https://go.dev", short)
}

func TestShortenFallsBackOnUnreachableAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(nil, "test-key", WithEndpoint(srv.URL))
	short, err := c.Shorten(context.Background(), "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, "https://go.dev", short)
}
