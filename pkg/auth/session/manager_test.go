package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/redis"
)

type memSessions struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Duration
}

func newMemSessions() *memSessions {
	return &memSessions{values: map[string]string{}, expires: map[string]time.Duration{}}
}

func (m *memSessions) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = fmt.Sprint(value)
	m.expires[key] = ttl
	return nil
}

func (m *memSessions) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", redis.ErrNil
	}
	return v, nil
}

func (m *memSessions) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memSessions) SessionKey(sessionID string) string {
	return "ag:session:" + sessionID
}

var kitchenJWT = config.JWTConfig{ExpirationMinutes: 60, SessionTTLMinutes: 12 * 60}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemSessions()
	mgr, err := newManager(store, kitchenJWT)
	require.NoError(t, err)

	sid, err := mgr.Create(ctx, 31)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, store.expires["ag:session:"+sid])

	owner, err := mgr.UserID(ctx, sid)
	require.NoError(t, err)
	assert.EqualValues(t, 31, owner)
	active, err := mgr.HasSession(ctx, sid)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, mgr.Revoke(ctx, sid))
	active, err = mgr.HasSession(ctx, sid)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCorruptSessionIsAnError(t *testing.T) {
	store := newMemSessions()
	store.values["ag:session:abc"] = "not-a-number"
	mgr, err := newManager(store, kitchenJWT)
	require.NoError(t, err)

	_, err = mgr.HasSession(context.Background(), "abc")
	assert.ErrorContains(t, err, "corrupt session")
}

func TestSessionValidation(t *testing.T) {
	store := newMemSessions()
	_, err := newManager(store, config.JWTConfig{ExpirationMinutes: 60, SessionTTLMinutes: 30})
	assert.ErrorContains(t, err, "shorter than access token")
	_, err = newManager(store, config.JWTConfig{ExpirationMinutes: 60})
	assert.Error(t, err)
	_, err = NewManager(nil, kitchenJWT)
	assert.Error(t, err)

	mgr, err := newManager(store, kitchenJWT)
	require.NoError(t, err)
	_, err = mgr.Create(context.Background(), 0)
	assert.ErrorIs(t, err, ErrUserIDRequired)
	_, err = mgr.HasSession(context.Background(), " ")
	assert.ErrorIs(t, err, ErrSessionIDRequired)
	assert.ErrorIs(t, mgr.Revoke(context.Background(), ""), ErrSessionIDRequired)
}
