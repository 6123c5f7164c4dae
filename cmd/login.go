package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/habedi/voxbridge/auth"
	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// newKakaoLogin builds the browser sign-in. Tests replace it.
var newKakaoLogin = func(cfg auth.KakaoConfig) idTokenSource {
	return auth.NewKakaoLogin(cfg, nil)
}

type idTokenSource interface {
	IDToken(ctx context.Context) (string, error)
}

// loginCmd signs in with a Kakao ID token and stores the backend token pair.
func loginCmd(c *cli) *cobra.Command {
	var idToken string
	var browser bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your Kakao account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			switch {
			case idToken != "":
			case browser:
				cmd.Println("Opening the Kakao sign-in page...")
				idToken, err = newKakaoLogin(a.cfg.Kakao).IDToken(ctx)
				if err != nil {
					return clierr.New(clierr.Auth, "Kakao sign-in failed: "+err.Error(), err)
				}
			default:
				idToken, err = newPrompter(cmd).promptForPassword("Kakao ID token: ")
				if err != nil {
					return err
				}
			}
			if idToken == "" {
				return clierr.New(clierr.Validation, "Kakao ID token cannot be empty.", nil)
			}

			resp, err := a.api.Auth.KakaoLogin(ctx, idToken)
			if err != nil {
				return clierr.New(clierr.Auth, "Login failed: "+err.Error(), err)
			}
			cmd.Printf("Logged in as %s.\n", resp.User.UID)
			return nil
		},
	}

	cmd.Flags().StringVar(&idToken, "id-token", "", "Kakao ID token to exchange")
	cmd.Flags().BoolVar(&browser, "browser", false, "Sign in through the Kakao web page in Chrome")
	return cmd
}

func logoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			if err := a.api.Auth.Logout(cmd.Context()); err != nil {
				return clierr.New(clierr.Internal, "Failed to clear the stored tokens.", err)
			}
			log.Info().Msg("Tokens cleared")
			cmd.Println("Logged out.")
			return nil
		},
	}
}

// statusCmd shows what the stored access token says about the session.
func statusCmd(c *cli) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the login status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if refresh {
				if _, err := a.auth.EnsureFresh(ctx); err != nil {
					if errors.Is(err, auth.ErrNotLoggedIn) {
						return err
					}
					return clierr.New(clierr.Auth, "Session could not be refreshed. Run 'voxbridge login'.", err)
				}
			}

			st, err := a.auth.Status(ctx)
			if err != nil {
				return clierr.New(clierr.Internal, err.Error(), err)
			}
			if !st.LoggedIn {
				cmd.Println("Not logged in.")
				if st.HasRefresh {
					cmd.Println("A refresh token is stored; run 'voxbridge status --refresh' to renew the session.")
				}
				return nil
			}

			cmd.Println("Logged in.")
			if st.Opaque {
				cmd.Println("Access token: opaque")
				return nil
			}
			if st.Subject != "" {
				cmd.Println("User:", st.Subject)
			}
			if !st.ExpiresAt.IsZero() {
				state := "valid"
				if st.Expired(time.Now()) {
					state = "expired"
				}
				cmd.Printf("Access token %s until %s\n", state, st.ExpiresAt.Local().Format(time.RFC1123))
			}
			cmd.Println("Refresh token stored:", st.HasRefresh)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh the access token if it is about to expire")
	return cmd
}
