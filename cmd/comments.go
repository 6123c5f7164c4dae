package cmd

import (
	"io"
	"strings"

	"github.com/habedi/voxbridge/api"
	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/habedi/voxbridge/pkg/validation"
	"github.com/spf13/cobra"
)

func commentsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write comments on posts",
	}
	cmd.AddCommand(commentsListCmd(c), commentsAddCmd(c), commentsDeleteCmd(c))
	return cmd
}

func commentsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list [postID]",
		Short: "List the comments of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateID("post", args[0]); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			comments, err := a.api.Comments.ListByPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderComments(cmd.OutOrStdout(), comments)
			return nil
		},
	}
}

func commentsAddCmd(c *cli) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "add [postID] [text]",
		Short: "Comment on a post, or reply to a comment with --reply-to",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, content := args[0], strings.Join(args[1:], " ")
			if err := validation.ValidateID("post", postID); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if err := validation.ValidateNonEmptyString("comment", content); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if parentID != "" {
				if err := validation.ValidateID("comment", parentID); err != nil {
					return clierr.New(clierr.Validation, err.Error(), err)
				}
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			comment, err := a.api.Comments.Create(cmd.Context(), api.CreateCommentRequest{
				Content:  content,
				PostID:   postID,
				ParentID: parentID,
			})
			if err != nil {
				return err
			}
			cmd.Printf("Comment %s added.\n", comment.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&parentID, "reply-to", "", "ID of the comment to reply to")
	return cmd
}

func commentsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [commentID]",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateID("comment", args[0]); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			if err := a.api.Comments.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Comment %s deleted.\n", args[0])
			return nil
		},
	}
}

// renderComments prints the comment tree, indenting replies.
func renderComments(w io.Writer, comments []api.Comment) {
	table := newTable(w, []string{"Comment ID", "Author", "Comment", "Created"})
	table.SetColMinWidth(2, 40)
	var walk func(list []api.Comment, depth int)
	walk = func(list []api.Comment, depth int) {
		for _, cm := range list {
			table.Append([]string{cm.ID, cm.AuthorName, strings.Repeat("  ", depth) + cm.Content, cm.CreatedAt})
			walk(cm.Children, depth+1)
		}
	}
	walk(comments, 0)
	table.Render()
}
