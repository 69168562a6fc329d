// Package cache provides the key-value capability shared by the token store
// and the catalog lookups.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Store is a byte-oriented key-value cache. A ttl <= 0 keeps the value until
// it is overwritten or forgotten.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// PutMany writes all entries in one step so readers never observe a partial set.
	PutMany(ctx context.Context, entries []Entry) error
	Forget(ctx context.Context, key string) error
}

type Entry struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

var ErrEmptyKey = errors.New("cache_key_empty")

// Key joins non-empty parts with dots, e.g. Key("exact", "item", sku).
func Key(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, trimmed)
	}
	return strings.Join(values, ".")
}
