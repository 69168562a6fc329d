package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualTime struct {
	mu  sync.Mutex
	now time.Time
}

func (m *manualTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualTime) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clk := &manualTime{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryStoreWithClock(clk.Now)

	require.NoError(t, store.Put(ctx, "u1.access_token", []byte("a"), time.Minute))
	require.NoError(t, store.Put(ctx, "u1.refresh_token", []byte("r"), 0))

	value, ok, err := store.Get(ctx, "u1.access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), value)

	clk.Advance(time.Minute)

	_, ok, err = store.Get(ctx, "u1.access_token")
	require.NoError(t, err)
	assert.False(t, ok)

	clk.Advance(365 * 24 * time.Hour)
	value, ok, err = store.Get(ctx, "u1.refresh_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("r"), value)
}

func TestMemoryStorePutManyAndForget(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.PutMany(ctx, []Entry{
		{Key: "a", Value: []byte("1"), TTL: time.Hour},
		{Key: "b", Value: []byte("2")},
	}))
	require.NoError(t, store.Forget(ctx, "a"))

	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok)
	value, ok, _ := store.Get(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), value)

	assert.ErrorIs(t, store.PutMany(ctx, []Entry{{Key: ""}}), ErrEmptyKey)
}

func TestRememberComputesOnceAndSkipsErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	calls := 0
	compute := func(context.Context) ([]string, error) {
		calls++
		return []string{"guid-1"}, nil
	}

	first, err := Remember(ctx, store, Key("exact", "item", "SKU-1"), time.Hour, compute)
	require.NoError(t, err)
	second, err := Remember(ctx, store, Key("exact", "item", "SKU-1"), time.Hour, compute)
	require.NoError(t, err)

	assert.Equal(t, []string{"guid-1"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err = Remember(ctx, store, "failing", time.Hour, func(context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	_, ok, _ := store.Get(ctx, "failing")
	assert.False(t, ok)
}

func TestKeySkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "exact.item.A+1", Key("exact", " ", "item", "A+1 "))
	assert.Equal(t, "u1.access_token", Key("u1", "access_token"))
}

func TestMemoryLockerSerializesPerKey(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()

	release, err := locker.Lock(ctx, "refresh.u1", time.Second)
	require.NoError(t, err)

	other, err := locker.Lock(ctx, "refresh.u2", time.Second)
	require.NoError(t, err)
	other()

	_, err = locker.Lock(ctx, "refresh.u1", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()
	release()

	again, err := locker.Lock(ctx, "refresh.u1", time.Second)
	require.NoError(t, err)
	again()
}
