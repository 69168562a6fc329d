package domain

import "context"

type Manager interface {
	EnsureValidToken(ctx context.Context, userID string) (string, error)
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, userID, code string) error
	Status(ctx context.Context, userID string) (Status, error)
}
