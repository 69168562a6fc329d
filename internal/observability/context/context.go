// Package context carries request correlation values for logs and spans.
package context

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
	divisionKey  ctxKey = "division"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, userIDKey)
}

func WithDivision(ctx context.Context, division string) context.Context {
	return context.WithValue(ctx, divisionKey, division)
}

func DivisionFromContext(ctx context.Context) string {
	return stringValue(ctx, divisionKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
