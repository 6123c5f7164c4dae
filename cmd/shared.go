package cmd

import (
	"github.com/habedi/voxbridge/conversation"
	"github.com/spf13/cobra"
)

// languagesCmd lists the languages a conversation can be translated into.
func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported translation languages",
		Run: func(cmd *cobra.Command, args []string) {
			table := newTable(cmd.OutOrStdout(), []string{"Code", "Language"})
			for _, l := range conversation.Languages() {
				table.Append([]string{l.Code, l.Name})
			}
			table.Render()
		},
	}
}

// healthCmd checks that the backend answers.
func healthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			resp, err := a.api.App.Health(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Backend %s is up: %s\n", a.cfg.APIBaseURL, resp.Message)
			return nil
		},
	}
}
