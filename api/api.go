// Package api wraps the voxbridge backend endpoints on top of the
// authenticated client.
package api

import "github.com/habedi/voxbridge/client"

// API bundles the backend services sharing one client.
type API struct {
	Auth       *AuthService
	Users      *UserService
	Posts      *PostService
	Comments   *CommentService
	Workspaces *WorkspaceService
	Speech     *SpeechService
	App        *AppService
}

// New creates all services on top of c.
func New(c *client.Client) *API {
	return &API{
		Auth:       &AuthService{c: c},
		Users:      &UserService{c: c},
		Posts:      &PostService{c: c},
		Comments:   &CommentService{c: c},
		Workspaces: &WorkspaceService{c: c},
		Speech:     &SpeechService{c: c},
		App:        &AppService{c: c},
	}
}
