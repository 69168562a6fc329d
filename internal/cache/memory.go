package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is a typed in-process cache with per-entry expiry.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

type ttlCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]ttlEntry[V]
	now   func() time.Time
}

// NewTTLCache returns a Cache backed by a map. A ttl <= 0 never expires.
func NewTTLCache[K comparable, V any]() Cache[K, V] {
	return newTTLCache[K, V](time.Now)
}

func newTTLCache[K comparable, V any](now func() time.Time) *ttlCache[K, V] {
	return &ttlCache[K, V]{
		items: make(map[K]ttlEntry[V]),
		now:   now,
	}
}

func (c *ttlCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.items[key]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return entry.value, true
}

func (c *ttlCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = c.entry(value, ttl)
}

func (c *ttlCache[K, V]) setMany(values map[K]ttlEntry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range values {
		c.items[key] = entry
	}
}

func (c *ttlCache[K, V]) entry(value V, ttl time.Duration) ttlEntry[V] {
	entry := ttlEntry[V]{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	return entry
}

func (c *ttlCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// MemoryStore is the single-process Store.
type MemoryStore struct {
	items *ttlCache[string, []byte]
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock lets tests control expiry.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{items: newTTLCache[string, []byte](now)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	value, ok := s.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.items.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (s *MemoryStore) PutMany(ctx context.Context, entries []Entry) error {
	values := make(map[string]ttlEntry[[]byte], len(entries))
	for _, e := range entries {
		if e.Key == "" {
			return ErrEmptyKey
		}
		values[e.Key] = s.items.entry(append([]byte(nil), e.Value...), e.TTL)
	}
	s.items.setMany(values)
	return nil
}

func (s *MemoryStore) Forget(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.items.Delete(key)
	return nil
}
