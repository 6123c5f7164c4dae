// Package auth reports on and maintains the stored backend session, and runs
// the browser based Kakao sign-in that starts one.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Status describes the stored session. Claims are read without verifying the
// signature; the backend stays the authority on validity.
type Status struct {
	LoggedIn   bool
	HasRefresh bool
	Subject    string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	// Opaque is set when the access token is not a JWT.
	Opaque bool
}

// Expired reports whether the access token has expired at now.
func (s Status) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Service inspects and refreshes the stored session.
type Service struct {
	Tokens    TokenReader
	Refresher Refresher
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewService(tokens TokenReader, refresher Refresher) *Service {
	return &Service{Tokens: tokens, Refresher: refresher, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Status reads the stored tokens and the access token claims.
func (s *Service) Status(ctx context.Context) (Status, error) {
	access, err := s.Tokens.AccessToken(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read access token: %w", err)
	}
	refresh, err := s.Tokens.RefreshToken(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read refresh token: %w", err)
	}

	st := Status{LoggedIn: access != "", HasRefresh: refresh != ""}
	if access == "" {
		return st, nil
	}
	claims, err := ParseClaims(access)
	if err != nil {
		st.Opaque = true
		return st, nil
	}
	st.Subject = claims.Subject
	if claims.IssuedAt != nil {
		st.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		st.ExpiresAt = claims.ExpiresAt.Time
	}
	return st, nil
}

// ParseClaims decodes the registered claims of a JWT without verifying it.
func ParseClaims(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}
	return claims, nil
}
