package cmd

import (
	"strconv"

	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/habedi/voxbridge/pkg/validation"
	"github.com/spf13/cobra"
)

func historyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past conversations saved on this machine",
	}
	cmd.AddCommand(historyListCmd(c), historyShowCmd(c), historyClearCmd(c))
	return cmd
}

func historyListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			convs, err := a.history.List(cmd.Context())
			if err != nil {
				return clierr.New(clierr.Internal, "Failed to read the conversation history.", err)
			}
			if len(convs) == 0 {
				cmd.Println("No conversations saved yet.")
				return nil
			}
			table := newTable(cmd.OutOrStdout(), []string{"Conversation ID", "Language", "Messages", "Started"})
			for _, conv := range convs {
				table.Append([]string{conv.ID, conv.Language, strconv.Itoa(len(conv.Messages)), conv.CreatedAt.Local().Format("2006-01-02 15:04")})
			}
			table.Render()
			return nil
		},
	}
}

func historyShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show [conversationID]",
		Short: "Show the messages of a saved conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateID("conversation", args[0]); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			conv, err := a.history.Get(cmd.Context(), args[0])
			if err != nil {
				return clierr.New(clierr.Internal, "Failed to read the conversation history.", err)
			}
			if conv == nil {
				return clierr.New(clierr.NotFound, "Conversation "+args[0]+" not found.", nil)
			}
			table := newTable(cmd.OutOrStdout(), []string{"Time", "Original", "Translation"})
			table.SetColMinWidth(1, 30)
			table.SetColMinWidth(2, 30)
			for _, m := range conv.Messages {
				table.Append([]string{
					m.Timestamp,
					"[" + m.OriginalLanguage + "] " + m.OriginalText,
					"[" + m.TranslatedLanguage + "] " + m.TranslatedText,
				})
			}
			table.Render()
			return nil
		},
	}
}

func historyClearCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all saved conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			if !yes {
				ok, err := newPrompter(cmd).confirm("Delete all saved conversations?")
				if err != nil {
					return err
				}
				if !ok {
					cmd.Println("Nothing deleted.")
					return nil
				}
			}
			if err := a.history.Clear(cmd.Context()); err != nil {
				return clierr.New(clierr.Internal, "Failed to clear the conversation history.", err)
			}
			cmd.Println("Conversation history cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
