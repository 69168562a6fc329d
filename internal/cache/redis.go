package cache

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore shares cache state between processes.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.client.Set(ctx, s.key(key), value, expiration(ttl)).Err()
}

func (s *RedisStore) PutMany(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if e.Key == "" {
			return ErrEmptyKey
		}
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range entries {
			pipe.Set(ctx, s.key(e.Key), e.Value, expiration(e.TTL))
		}
		return nil
	})
	return err
}

func (s *RedisStore) Forget(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.client.Del(ctx, s.key(key)).Err()
}

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return ttl
}
