package cmd

import (
	"io"
	"strconv"

	"github.com/habedi/voxbridge/api"
	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/habedi/voxbridge/pkg/validation"
	"github.com/spf13/cobra"
)

func workspaceCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"workspaces"},
		Short:   "Manage the workspaces you belong to",
	}
	cmd.AddCommand(workspaceListCmd(c), workspaceCreateCmd(c), workspaceJoinCmd(c), workspaceDeleteCmd(c))
	return cmd
}

func workspaceListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			list, err := a.api.Workspaces.List(cmd.Context())
			if err != nil {
				return err
			}
			renderWorkspaces(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func workspaceCreateCmd(c *cli) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a workspace and print its invite code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNonEmptyString("workspace name", args[0]); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			ws, err := a.api.Workspaces.Create(cmd.Context(), api.CreateWorkspaceRequest{Name: args[0], Description: description})
			if err != nil {
				return err
			}
			cmd.Printf("Workspace %s created. Invite code: %s\n", ws.Name, ws.InviteCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Short description of the workspace")
	return cmd
}

func workspaceJoinCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "join [inviteCode]",
		Short: "Join a workspace with an invite code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNonEmptyString("invite code", args[0]); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			ws, err := a.api.Workspaces.Join(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("Joined workspace %s.\n", ws.Name)
			return nil
		},
	}
}

func workspaceDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [workspaceID]",
		Short: "Delete a workspace you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateID("workspace", args[0]); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			if err := a.api.Workspaces.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Workspace %s deleted.\n", args[0])
			return nil
		},
	}
}

func renderWorkspaces(w io.Writer, list []api.Workspace) {
	table := newTable(w, []string{"Workspace ID", "Name", "Invite Code", "Members"})
	for _, ws := range list {
		table.Append([]string{ws.ID, ws.Name, ws.InviteCode, strconv.Itoa(len(ws.Members))})
	}
	table.Render()
}
