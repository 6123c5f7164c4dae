package db

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Keys under which the token pair is persisted.
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

// TokenStore keeps the access/refresh token pair in the key-value table.
type TokenStore struct {
	repo KVRepository
}

// NewTokenStore wraps a KVRepository.
func NewTokenStore(repo KVRepository) *TokenStore {
	return &TokenStore{repo: repo}
}

// AccessToken returns the stored access token or "" when none is stored.
func (s *TokenStore) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, AccessTokenKey)
}

// RefreshToken returns the stored refresh token or "" when none is stored.
func (s *TokenStore) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, RefreshTokenKey)
}

func (s *TokenStore) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.repo.Get(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to read token")
		return "", err
	}
	return v, nil
}

// SetAccessToken replaces the access token only.
func (s *TokenStore) SetAccessToken(ctx context.Context, token string) error {
	if err := s.repo.Set(ctx, AccessTokenKey, token); err != nil {
		log.Error().Err(err).Msg("Failed to save access token")
		return err
	}
	return nil
}

// SetTokens stores both tokens together.
func (s *TokenStore) SetTokens(ctx context.Context, access, refresh string) error {
	err := s.repo.SetMany(ctx, map[string]string{
		AccessTokenKey:  access,
		RefreshTokenKey: refresh,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to save token pair")
		return err
	}
	log.Info().Int("access_len", len(access)).Int("refresh_len", len(refresh)).Msg("Token pair saved")
	return nil
}

// ClearTokens removes both tokens in one statement.
func (s *TokenStore) ClearTokens(ctx context.Context) error {
	if err := s.repo.Delete(ctx, AccessTokenKey, RefreshTokenKey); err != nil {
		log.Error().Err(err).Msg("Failed to clear tokens")
		return err
	}
	log.Info().Msg("Tokens cleared")
	return nil
}
