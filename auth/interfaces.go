package auth

import "context"

// TokenReader gives read access to the stored token pair. *db.TokenStore satisfies it.
type TokenReader interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
}

// Refresher mints a new access token. *client.Client satisfies it.
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}
