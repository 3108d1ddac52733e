package cron

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLockStore struct {
	values map[string]string
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{values: map[string]string{}}
}

func (s *fakeLockStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (s *fakeLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeLockStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *fakeLockStore) LockKey(name string) string {
	return "orderops:lock:" + name
}

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, store.LockKey("accrual"), time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	other, err := NewRedisLock(store, store.LockKey("accrual"), time.Minute)
	require.NoError(t, err)
	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second worker must not acquire a held lock")

	require.NoError(t, lock.Release(ctx))

	ok, err = other.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "lock reacquirable after release")
}

func TestRedisLockReleaseOnlyOwn(t *testing.T) {
	store := newFakeLockStore()
	ctx := context.Background()

	first, err := NewRedisLock(store, store.LockKey("accrual"), time.Minute)
	require.NoError(t, err)
	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate TTL expiry followed by another worker taking the lock.
	require.NoError(t, store.Del(ctx, store.LockKey("accrual")))
	second, err := NewRedisLock(store, store.LockKey("accrual"), time.Minute)
	require.NoError(t, err)
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, first.Release(ctx))

	_, err = store.Get(ctx, store.LockKey("accrual"))
	assert.NoError(t, err, "second worker's lock survives a stale release")
}

func TestRedisLockReleaseWithoutAcquire(t *testing.T) {
	store := newFakeLockStore()
	lock, err := NewRedisLock(store, store.LockKey("accrual"), time.Minute)
	require.NoError(t, err)

	assert.NoError(t, lock.Release(context.Background()))
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "key", time.Minute)
	assert.Error(t, err)

	_, err = NewRedisLock(newFakeLockStore(), "", time.Minute)
	assert.Error(t, err)
}
