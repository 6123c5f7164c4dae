package api

import (
	"context"
	"net/http"

	"github.com/habedi/voxbridge/client"
)

// CommentService manages post comments.
type CommentService struct{ c *client.Client }

// Create adds a comment to req.PostID.
func (s *CommentService) Create(ctx context.Context, req CreateCommentRequest) (Comment, error) {
	return client.Call[Comment](ctx, s.c, http.MethodPost, PostCommentsPath(req.PostID), req)
}

func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]Comment, error) {
	return client.Call[[]Comment](ctx, s.c, http.MethodGet, PostCommentsPath(postID), nil)
}

func (s *CommentService) Delete(ctx context.Context, id string) error {
	_, err := client.Call[struct{}](ctx, s.c, http.MethodDelete, CommentPath(id), nil)
	return err
}
