// Package client is the authenticated HTTP client for the voxbridge backend.
//
// Every request outside the auth endpoints carries the stored access token.
// A 401 triggers a single token refresh shared by all requests that fail
// while it runs; each of them is then replayed exactly once.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout matches the timeout of the mobile client.
const DefaultTimeout = 10 * time.Second

// TokenStore is the durable home of the token pair.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, token string) error
	SetTokens(ctx context.Context, access, refresh string) error
	ClearTokens(ctx context.Context) error
}

// Client sends requests to the backend and recovers from expired access tokens.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenStore

	queue *refreshQueue
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTP = hc }
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTP.Timeout = d
		}
	}
}

// New creates a Client with its own refresh state.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultTimeout},
		Tokens:  tokens,
		queue:   &refreshQueue{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// requiresAuth reports whether path gets the bearer token attached.
func requiresAuth(path string) bool {
	return !strings.Contains(path, "/auth/") && path != RefreshPath
}

// Do sends req and returns the response of a 2xx reply. Any other status is
// returned as *HTTPError, except a first 401, which goes through the refresh
// protocol and replays req once with the new token.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	gen := c.queue.generation()
	token := ""
	if requiresAuth(req.Path) {
		token = c.accessToken(ctx)
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.retried && req.Path != RefreshPath {
		discardBody(resp)
		log.Info().Str("path", req.Path).Msg("Access token rejected, waiting for refresh")
		newToken, err := c.awaitRefresh(ctx, gen)
		if err != nil {
			return nil, err
		}
		req.retried = true
		resp, err = c.send(ctx, req, newToken)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPError(req, resp)
	}
	return resp, nil
}

// accessToken reads the stored token. Storage failures degrade to "no token".
func (c *Client) accessToken(ctx context.Context) string {
	if c.Tokens == nil {
		return ""
	}
	token, err := c.Tokens.AccessToken(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read access token, sending request unauthenticated")
		return ""
	}
	return token
}

// send performs one HTTP round trip for req.
func (c *Client) send(ctx context.Context, req *Request, token string) (*http.Response, error) {
	urlStr := c.BaseURL + req.Path
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, urlStr, body)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", urlStr).Msg("Failed to create HTTP request object")
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debug().Str("method", req.Method).Str("url", urlStr).Bool("retried", req.retried).Msg("Sending HTTP request")
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", urlStr).Msg("HTTP request failed")
		return nil, err
	}
	log.Debug().Str("method", req.Method).Str("url", urlStr).Int("status", resp.StatusCode).Msg("HTTP response received")
	return resp, nil
}

func discardBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("url", resp.Request.URL.String()).Msg("Failed to read response body")
		return nil, err
	}
	return body, nil
}
