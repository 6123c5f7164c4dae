package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Envelope wraps every backend response.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func decodeEnvelope[T any](body []byte) (T, error) {
	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		log.Error().Err(err).Str("body_preview", string(body[:min(len(body), 200)])).Msg("Failed to parse response envelope")
		var zero T
		return zero, fmt.Errorf("failed to parse response: %w", err)
	}
	if !env.Success {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrUnsuccessful, env.Message)
	}
	return env.Data, nil
}

// Call sends in as JSON and decodes the data field of the response envelope.
func Call[T any](ctx context.Context, c *Client, method, path string, in any) (T, error) {
	var zero T
	req, err := NewJSONRequest(method, path, in)
	if err != nil {
		return zero, err
	}
	return Send[T](ctx, c, req)
}

// Upload sends form as multipart/form-data and decodes the response envelope.
func Upload[T any](ctx context.Context, c *Client, method, path string, form *Form) (T, error) {
	var zero T
	req, err := NewMultipartRequest(method, path, form)
	if err != nil {
		return zero, err
	}
	return Send[T](ctx, c, req)
}

// Send performs req and decodes the response envelope.
func Send[T any](ctx context.Context, c *Client, req *Request) (T, error) {
	var zero T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return zero, fmt.Errorf("failed to read response body: %w", err)
	}
	return decodeEnvelope[T](body)
}
