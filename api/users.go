package api

import (
	"context"
	"net/http"

	"github.com/habedi/voxbridge/client"
)

// UserService reads and updates the user profile.
type UserService struct{ c *client.Client }

func (s *UserService) Profile(ctx context.Context) (UserProfile, error) {
	return client.Call[UserProfile](ctx, s.c, http.MethodGet, ProfilePath, nil)
}

// UpdateProfile replaces the whole profile.
func (s *UserService) UpdateProfile(ctx context.Context, p ProfileUpdate) (UserProfile, error) {
	return client.Call[UserProfile](ctx, s.c, http.MethodPut, ProfilePath, p)
}

// PatchProfile updates the fields set in p.
func (s *UserService) PatchProfile(ctx context.Context, p ProfilePatch) (UserProfile, error) {
	return client.Call[UserProfile](ctx, s.c, http.MethodPatch, ProfilePath, p)
}

func (s *UserService) OnboardingCompleted(ctx context.Context) (bool, error) {
	return client.Call[bool](ctx, s.c, http.MethodGet, OnboardingStatusPath, nil)
}

func (s *UserService) InWorkspace(ctx context.Context) (bool, error) {
	return client.Call[bool](ctx, s.c, http.MethodGet, WorkspaceStatusPath, nil)
}
