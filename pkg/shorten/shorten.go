// Package shorten wraps the Bitly v4 shorten endpoint.
package shorten

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bpetkov/bookmarkd/internal/logger"
)

// ErrUnavailable is returned when no API key is configured. The error
// surfaces only when shortening is actually requested, so a server
// without a key still serves everything else.
var ErrUnavailable = errors.New("link shortening unavailable: no API key configured")

const defaultEndpoint = "https://api-ssl.bitly.com/v4/shorten"

type shortenRequest struct {
	LongURL string `json:"long_url"`
	Domain  string `json:"domain"`
}

type shortenResponse struct {
	Link string `json:"link"`
}

// Client calls the Bitly API with an injected key.
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// Option adjusts a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint. Used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// New creates a Client. An empty apiKey produces a Client whose
// Shorten always returns ErrUnavailable. A nil httpClient falls back
// to http.DefaultClient.
func New(httpClient *http.Client, apiKey string, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient: httpClient,
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Shorten returns a shortened form of longURL. When the API call
// fails or answers with a non-200 status, the original URL is returned
// so callers can still store the bookmark.
func (c *Client) Shorten(ctx context.Context, longURL string) (string, error) {
	if c.apiKey == "" {
		return "", ErrUnavailable
	}

	payload, err := json.Marshal(shortenRequest{LongURL: longURL, Domain: "bit.ly"})
	if err != nil {
		return "", fmt.Errorf("failed to encode shorten request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build shorten request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Shorten request failed, keeping original URL: %v", err)
		return longURL, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Shorten request answered status %d, keeping original URL", resp.StatusCode)
		return longURL, nil
	}

	var body shortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		logger.Warn("Failed to decode shorten response, keeping original URL: %v", err)
		return longURL, nil
	}
	if body.Link == "" {
		return longURL, nil
	}
	return body.Link, nil
}
