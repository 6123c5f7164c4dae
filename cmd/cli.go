package cmd

import (
	"context"
	"errors"
	"net"
	"net/url"
	"os"

	"github.com/habedi/voxbridge/auth"
	"github.com/habedi/voxbridge/client"
	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the root command and exits with the status of the error kind.
func Execute(ctx context.Context) {
	c := newCLI()
	rootCmd := c.rootCmd()
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Show help for a command")
	rootCmd.SetOut(os.Stdout)

	err := rootCmd.ExecuteContext(ctx)
	closeErr := c.close()
	if err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		err = classify(err)
		log.Error().Err(err).Msg("Command execution failed.")
		rootCmd.PrintErrln("Error:", err)
		os.Exit(clierr.ExitCode(err))
	}
}

func createRootCmd() *cobra.Command {
	return newCLI().rootCmd()
}

// rootCmd builds the command tree. Commands that need the backend or the
// database get them through c.app, which is opened on first use.
func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "voxbridge",
		Short:         "Speak, translate and talk with your workplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.configPath, "config", "", "Path to the config file (default ~/.voxbridge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "Backend base URL, overrides the config file")

	rootCmd.AddCommand(
		loginCmd(c),
		logoutCmd(c),
		statusCmd(c),
		recordCmd(c),
		profileCmd(c),
		postsCmd(c),
		commentsCmd(c),
		workspaceCmd(c),
		historyCmd(c),
		recordingsCmd(c),
		languagesCmd(),
		healthCmd(c),
		versionCmd(),
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	return rootCmd
}

// classify turns errors from the lower layers into typed CLI errors so the
// process exits with a meaningful status.
func classify(err error) error {
	var ce *clierr.Error
	if err == nil || errors.As(err, &ce) {
		return err
	}

	var urlErr *url.Error
	var netErr net.Error
	switch {
	case client.IsLoggedOut(err), client.IsUnauthorized(err), errors.Is(err, auth.ErrNotLoggedIn):
		return clierr.New(clierr.Auth, "Not logged in. Run 'voxbridge login' first.", err)
	case client.StatusCode(err) == 404:
		return clierr.New(clierr.NotFound, "The requested resource was not found.", err)
	case errors.Is(err, context.Canceled):
		return clierr.New(clierr.Internal, "Interrupted.", err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &urlErr), errors.As(err, &netErr):
		return clierr.New(clierr.Network, "Could not reach the backend: "+err.Error(), err)
	}
	return err
}
