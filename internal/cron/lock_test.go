package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemRedis() *memRedis {
	return &memRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memRedis) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	if m.values[key] != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memRedis) CompareAndExpire(_ context.Context, key, expected string, ttl time.Duration) (bool, error) {
	if v, ok := m.values[key]; !ok || v != expected {
		return false, nil
	}
	m.ttls[key] = ttl
	return true, nil
}

func TestRedisLockExclusive(t *testing.T) {
	store := newMemRedis()
	ctx := context.Background()
	first, err := NewRedisLock(store, "ag:lock:cron-worker:prod", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "ag:lock:cron-worker:prod", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, second.Release(ctx))
	require.Contains(t, store.values, "ag:lock:cron-worker:prod")

	require.NoError(t, first.Release(ctx))
	require.NotContains(t, store.values, "ag:lock:cron-worker:prod")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockLeavesForeignOwner(t *testing.T) {
	store := newMemRedis()
	ctx := context.Background()
	lock, err := NewRedisLock(store, "ag:lock:cron", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	store.values["ag:lock:cron"] = "someone-else"
	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "someone-else", store.values["ag:lock:cron"])

	_, err = NewRedisLock(nil, "k", 0)
	assert.Error(t, err)
	_, err = NewRedisLock(store, "", 0)
	assert.Error(t, err)
}

func TestRedisLockExtend(t *testing.T) {
	store := newMemRedis()
	ctx := context.Background()
	lock, err := NewRedisLock(store, "ag:lock:cron", 0)
	require.NoError(t, err)

	ok, err := lock.Extend(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "extend before acquire")

	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, defaultLockTTL, store.ttls["ag:lock:cron"])

	store.ttls["ag:lock:cron"] = time.Second
	ok, err = lock.Extend(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, defaultLockTTL, store.ttls["ag:lock:cron"])

	store.values["ag:lock:cron"] = "taken-over"
	ok, err = lock.Extend(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
