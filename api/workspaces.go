package api

import (
	"context"
	"net/http"

	"github.com/habedi/voxbridge/client"
)

// WorkspaceService manages workspaces.
type WorkspaceService struct{ c *client.Client }

func (s *WorkspaceService) Create(ctx context.Context, req CreateWorkspaceRequest) (Workspace, error) {
	return client.Call[Workspace](ctx, s.c, http.MethodPost, WorkspacesPath, req)
}

// Join enters the workspace identified by an invite code.
func (s *WorkspaceService) Join(ctx context.Context, code string) (Workspace, error) {
	return client.Call[Workspace](ctx, s.c, http.MethodPost, WorkspaceJoinPath, JoinWorkspaceRequest{Code: code})
}

func (s *WorkspaceService) List(ctx context.Context) ([]Workspace, error) {
	return client.Call[[]Workspace](ctx, s.c, http.MethodGet, WorkspacesPath, nil)
}

func (s *WorkspaceService) Get(ctx context.Context, id string) (Workspace, error) {
	return client.Call[Workspace](ctx, s.c, http.MethodGet, WorkspacePath(id), nil)
}

func (s *WorkspaceService) Delete(ctx context.Context, id string) error {
	_, err := client.Call[struct{}](ctx, s.c, http.MethodDelete, WorkspacePath(id), nil)
	return err
}
