package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const lockPollInterval = 50 * time.Millisecond

var ErrLockTimeout = errors.New("lock_timeout")

// Locker serializes work per key. The returned release func is always safe to call.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

type RedisLocker struct {
	client redis.UniversalClient
	script *redis.Script
	prefix string
}

func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		prefix: prefix,
	}
}

// TryLock acquires key once without waiting.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lock client not configured")
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{l.prefix + key}, token).Err()
}

// Lock polls TryLock until the key is free, ttl elapses or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	deadline := time.Now().Add(ttl)
	for {
		token, ok, err := l.TryLock(ctx, key, ttl)
		if err != nil {
			return func() {}, err
		}
		if ok {
			return func() {
				_ = l.Release(context.WithoutCancel(ctx), key, token)
			}, nil
		}
		if time.Now().After(deadline) {
			return func() {}, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return func() {}, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// MemoryLocker is the single-process Locker.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]chan struct{})}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if key == "" {
		return func() {}, errors.New("lock key is empty")
	}

	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	var timeout <-chan time.Time
	if ttl > 0 {
		timer := time.NewTimer(ttl)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-ch })
		}, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timeout:
		return func() {}, ErrLockTimeout
	}
}
