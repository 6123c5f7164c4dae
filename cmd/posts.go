package cmd

import (
	"errors"
	"io"
	"strconv"

	"github.com/habedi/voxbridge/api"
	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/habedi/voxbridge/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func postsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Browse and write community posts",
	}
	cmd.AddCommand(postsListCmd(c), postsShowCmd(c), postsCreateCmd(c), postsDeleteCmd(c))
	return cmd
}

// postsListCmd lists the posts, optionally loading every comment thread
// with a pool of workers.
func postsListCmd(c *cli) *cobra.Command {
	var withComments bool
	var workers int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List community posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if !withComments {
				posts, err := a.api.Posts.List(ctx)
				if err != nil {
					return err
				}
				renderPosts(cmd.OutOrStdout(), posts)
				return nil
			}

			if workers == 0 {
				workers = a.cfg.Workers
			}
			if err := validation.ValidateWorkerCount(workers); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			list, err := a.api.Posts.ListWithComments(ctx, workers)
			if list == nil && err != nil {
				return err
			}
			if err != nil {
				log.Warn().Err(err).Msg("Some comment threads failed to load")
				cmd.PrintErrln("Warning: some comments could not be loaded.")
			}
			for _, pc := range list {
				renderPosts(cmd.OutOrStdout(), []api.Post{pc.Post})
				renderComments(cmd.OutOrStdout(), pc.Comments)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withComments, "comments", false, "Also load the comments of every post")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of concurrent comment requests [1-20]")
	return cmd
}

func postsShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show [postID]",
		Short: "Show a post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := validation.ValidateID("post", id); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			post, err := a.api.Posts.Get(ctx, id)
			if err != nil {
				return err
			}
			comments, err := a.api.Comments.ListByPost(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cmd.Println(post.Title)
			if post.AuthorName != "" {
				cmd.Printf("by %s, %s\n", post.AuthorName, post.CreatedAt)
			}
			cmd.Println()
			cmd.Println(post.Content)
			cmd.Println()
			renderComments(out, comments)
			return nil
		},
	}
}

func postsCreateCmd(c *cli) *cobra.Command {
	var title, content, language string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a new post",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.Join(
				validation.ValidateNonEmptyString("title", title),
				validation.ValidateNonEmptyString("content", content),
			); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			if language == "" {
				language = a.cfg.Language
			}
			if err := validation.ValidateLanguageCode(language, validation.Languages); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			post, err := a.api.Posts.Create(cmd.Context(), api.CreatePostRequest{Title: title, Content: content, Language: language})
			if err != nil {
				return err
			}
			cmd.Printf("Post %s created.\n", post.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Post title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Post content")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language of the post")
	return cmd
}

func postsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [postID]",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := validation.ValidateID("post", id); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			if err := a.api.Posts.Delete(cmd.Context(), id); err != nil {
				return err
			}
			cmd.Printf("Post %s deleted.\n", id)
			return nil
		},
	}
}

func renderPosts(w io.Writer, posts []api.Post) {
	table := newTable(w, []string{"Post ID", "Title", "Author", "Language", "Comments", "Created"})
	table.SetColMinWidth(1, 40) // Set minimum width for the Title column
	for _, p := range posts {
		table.Append([]string{p.ID, p.Title, p.AuthorName, p.Language, strconv.Itoa(p.CommentCount), p.CreatedAt})
	}
	table.Render()
}
