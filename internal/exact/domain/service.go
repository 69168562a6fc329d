package domain

import "context"

// TokenSource yields a bearer token that is valid at the time of the call.
type TokenSource interface {
	EnsureValidToken(ctx context.Context, userID string) (string, error)
}

// Client is the typed facade over the ERP REST surface. Paths are relative to
// /api/v1/{division}/ and queries are OData options.
type Client interface {
	Get(ctx context.Context, sess Session, path string, q Query, out any) error
	Post(ctx context.Context, sess Session, path string, body any, out any) error
	Put(ctx context.Context, sess Session, path string, body any) error
}
