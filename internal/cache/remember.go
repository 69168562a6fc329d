package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Remember returns the cached value under key or computes, stores and returns
// it. Errors from fn are returned as-is and nothing is stored. Concurrent
// callers may compute the same value twice.
func Remember[T any](ctx context.Context, store Store, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if raw, ok, err := store.Get(ctx, key); err == nil && ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	value, err := fn(ctx)
	if err != nil {
		return value, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	_ = store.Put(ctx, key, raw, ttl)
	return value, nil
}
