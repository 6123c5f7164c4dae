package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/habedi/voxbridge/client"
	"github.com/rs/zerolog/log"
)

// AuthService logs users in and out.
type AuthService struct{ c *client.Client }

// KakaoLogin exchanges a Kakao ID token for a backend token pair and stores it.
func (s *AuthService) KakaoLogin(ctx context.Context, idToken string) (AuthResponse, error) {
	if idToken == "" {
		return AuthResponse{}, fmt.Errorf("kakao id token is empty")
	}
	log.Info().Msg("Calling Kakao login endpoint")
	out, err := client.Call[AuthResponse](ctx, s.c, http.MethodPost, KakaoLoginPath, KakaoLoginRequest{IDToken: idToken})
	if err != nil {
		return AuthResponse{}, fmt.Errorf("kakao login failed: %w", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		return AuthResponse{}, fmt.Errorf("kakao login response is missing tokens")
	}
	if err := s.c.Tokens.SetTokens(ctx, out.AccessToken, out.RefreshToken); err != nil {
		return AuthResponse{}, fmt.Errorf("failed to store tokens: %w", err)
	}
	log.Info().Str("uid", out.User.UID).Msg("Logged in")
	return out, nil
}

// Refresh forces a token refresh and returns the new access token.
func (s *AuthService) Refresh(ctx context.Context) (string, error) {
	return s.c.Refresh(ctx)
}

// Logout clears the stored tokens.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.c.Tokens.ClearTokens(ctx)
}

// IsLoggedIn reports whether an access token is stored.
func (s *AuthService) IsLoggedIn(ctx context.Context) bool {
	token, err := s.c.Tokens.AccessToken(ctx)
	return err == nil && token != ""
}
