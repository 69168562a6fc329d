package domain

import (
	"context"
	"time"
)

// Store persists token pairs. Save replaces both tokens in one write.
// A non-positive accessTTL stores only the refresh token.
type Store interface {
	Load(ctx context.Context, userID string) (Token, error)
	Save(ctx context.Context, token Token, accessTTL time.Duration) error
	ForgetRefreshToken(ctx context.Context, userID string) error
}
