package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
)

// RefreshPath is the token refresh endpoint. It never carries a bearer token
// and a 401 from it is never retried.
const RefreshPath = "/api/auth/refresh"

var (
	// ErrRefreshFailed marks a terminal refresh failure. The stored tokens
	// have been cleared and the user has to log in again.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrNoRefreshToken is the cause of ErrRefreshFailed when no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token stored")
)

// waiter is the continuation of a request suspended during a refresh.
type waiter func(token string, err error)

// refreshQueue decides which failed request refreshes the token and parks the
// others until the outcome is known. One instance belongs to one Client.
type refreshQueue struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []waiter
	gen        uint64
	lastToken  string
	lastErr    error
}

type joinOutcome int

const (
	// joinRefresher: the caller must run the refresh and call resolve.
	joinRefresher joinOutcome = iota
	// joinQueued: w will be called once the running refresh resolves.
	joinQueued
	// joinResolved: a refresh finished after the caller's request was sent.
	joinResolved
)

// generation counts resolved refreshes.
func (q *refreshQueue) generation() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.gen
}

// join is the one place where a 401 handler decides between starting a
// refresh, waiting for the running one, or reusing an outcome that arrived
// after its request was sent with generation sentGen.
func (q *refreshQueue) join(sentGen uint64, w waiter) (joinOutcome, string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.refreshing {
		q.waiters = append(q.waiters, w)
		return joinQueued, "", nil
	}
	if q.gen != sentGen {
		return joinResolved, q.lastToken, q.lastErr
	}
	q.refreshing = true
	return joinRefresher, "", nil
}

// resolve ends the running refresh and hands its outcome to every waiter in
// the order they were queued.
func (q *refreshQueue) resolve(token string, err error) {
	q.mu.Lock()
	pending := q.waiters
	q.waiters = nil
	q.refreshing = false
	q.gen++
	q.lastToken = token
	q.lastErr = err
	q.mu.Unlock()

	for _, w := range pending {
		w(token, err)
	}
}

// pending reports the number of queued waiters.
func (q *refreshQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters)
}

type refreshOutcome struct {
	token string
	err   error
}

// awaitRefresh returns the access token to replay a request with.
func (c *Client) awaitRefresh(ctx context.Context, sentGen uint64) (string, error) {
	done := make(chan refreshOutcome, 1)
	outcome, token, err := c.queue.join(sentGen, func(token string, err error) {
		done <- refreshOutcome{token: token, err: err}
	})

	switch outcome {
	case joinResolved:
		return token, err
	case joinQueued:
		select {
		case r := <-done:
			return r.token, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	// The refresh outlives the caller that happened to start it.
	token, err = c.refresh(context.WithoutCancel(ctx))
	c.queue.resolve(token, err)
	return token, err
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse is the payload of a successful refresh.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// refresh exchanges the stored refresh token for a new access token. Any
// failure clears both tokens.
func (c *Client) refresh(ctx context.Context) (string, error) {
	token, err := c.exchangeRefreshToken(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Token refresh failed, clearing stored tokens")
		if c.Tokens != nil {
			if clearErr := c.Tokens.ClearTokens(ctx); clearErr != nil {
				log.Error().Err(clearErr).Msg("Failed to clear tokens after refresh failure")
			}
		}
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if err := c.Tokens.SetAccessToken(ctx, token); err != nil {
		// The replay still uses the new token; the next launch will refresh again.
		log.Error().Err(err).Msg("Failed to persist refreshed access token")
	}
	log.Info().Msg("Access token refreshed")
	return token, nil
}

func (c *Client) exchangeRefreshToken(ctx context.Context) (string, error) {
	if c.Tokens == nil {
		return "", ErrNoRefreshToken
	}
	refreshToken, err := c.Tokens.RefreshToken(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read refresh token")
		refreshToken = ""
	}
	if refreshToken == "" {
		return "", ErrNoRefreshToken
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", fmt.Errorf("failed to encode refresh request: %w", err)
	}
	req := &Request{
		Method:      http.MethodPost,
		Path:        RefreshPath,
		Body:        payload,
		ContentType: "application/json",
		retried:     true,
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.BaseURL+req.Path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	httpReq.Header.Set("Content-Type", req.ContentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send refresh request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newHTTPError(req, resp)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh response: %w", err)
	}
	out, err := decodeEnvelope[RefreshResponse](body)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("refresh response carries no access token")
	}
	return out.AccessToken, nil
}

// Refresh exchanges the refresh token for a new access token through the same
// single-flight path a 401 takes. Concurrent callers share one exchange.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.awaitRefresh(ctx, c.queue.generation())
}
