package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpiryMargin is how close to expiry an access token is refreshed ahead of time.
const ExpiryMargin = 5 * time.Minute

// EnsureFresh refreshes the access token when it expires within ExpiryMargin
// and returns the token to use. Opaque tokens are returned as they are and
// left to the 401 path of the client.
func (s *Service) EnsureFresh(ctx context.Context) (string, error) {
	st, err := s.Status(ctx)
	if err != nil {
		return "", err
	}
	if !st.LoggedIn && !st.HasRefresh {
		return "", ErrNotLoggedIn
	}

	access, err := s.Tokens.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if st.LoggedIn && isTokenValid(st, s.now()) {
		return access, nil
	}

	log.Info().Msg("Access token expired or about to expire, refreshing...")
	token, err := s.Refresher.Refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}
	log.Info().Msg("Access token refreshed.")
	return token, nil
}

func isTokenValid(st Status, now time.Time) bool {
	if st.Opaque || st.ExpiresAt.IsZero() {
		return true
	}
	return now.Add(ExpiryMargin).Before(st.ExpiresAt)
}
