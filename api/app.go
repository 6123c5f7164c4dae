package api

import (
	"context"
	"net/http"

	"github.com/habedi/voxbridge/client"
)

// AppService exposes service level endpoints.
type AppService struct{ c *client.Client }

func (s *AppService) Health(ctx context.Context) (HealthResponse, error) {
	return client.Call[HealthResponse](ctx, s.c, http.MethodGet, HealthPath, nil)
}
