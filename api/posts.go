package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/habedi/voxbridge/client"
	"github.com/habedi/voxbridge/pkg/pool"
	"github.com/rs/zerolog/log"
)

// PostService manages community posts.
type PostService struct{ c *client.Client }

func (s *PostService) Create(ctx context.Context, req CreatePostRequest) (Post, error) {
	return client.Call[Post](ctx, s.c, http.MethodPost, PostsPath, req)
}

func (s *PostService) List(ctx context.Context) ([]Post, error) {
	return client.Call[[]Post](ctx, s.c, http.MethodGet, PostsPath, nil)
}

func (s *PostService) Get(ctx context.Context, id string) (Post, error) {
	return client.Call[Post](ctx, s.c, http.MethodGet, PostPath(id), nil)
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	_, err := client.Call[struct{}](ctx, s.c, http.MethodDelete, PostPath(id), nil)
	return err
}

// PostWithComments is a post together with its comment tree.
type PostWithComments struct {
	Post     Post
	Comments []Comment
}

// ListWithComments fetches all posts and then their comments with up to
// workers concurrent requests. Posts whose comments failed to load are
// returned without comments and their errors are joined.
func (s *PostService) ListWithComments(ctx context.Context, workers int) ([]PostWithComments, error) {
	posts, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PostWithComments, len(posts))
	index := make(map[string]int, len(posts))
	for i, p := range posts {
		out[i].Post = p
		index[p.ID] = i
	}

	comments := &CommentService{c: s.c}
	var mu sync.Mutex
	errs := pool.Run(ctx, posts, workers, func(ctx context.Context, p Post) error {
		list, err := comments.ListByPost(ctx, p.ID)
		if err != nil {
			log.Warn().Err(err).Str("post", p.ID).Msg("Failed to load comments")
			return fmt.Errorf("comments of post %s: %w", p.ID, err)
		}
		mu.Lock()
		out[index[p.ID]].Comments = list
		mu.Unlock()
		return nil
	})
	return out, errors.Join(errs...)
}
