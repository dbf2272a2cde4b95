package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMemCommands()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "login:ip", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.EqualValues(t, 1, count)
	assert.Len(t, mock.expireCalls, 1)

	allowed, count, err = client.FixedWindowAllow(ctx, "login:ip", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.EqualValues(t, 2, count)
	assert.Len(t, mock.expireCalls, 1, "expire should only be set on the first hit")

	allowed, _, err = client.FixedWindowAllow(ctx, "login:ip", 2, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMemCommands()}
	key := client.SessionKey("abc")

	_, err := client.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNil)

	require.NoError(t, client.Set(ctx, key, "7", time.Minute))
	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	first, err := client.SetNX(ctx, key, "8", time.Minute)
	require.NoError(t, err)
	assert.False(t, first)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNil)
}

func TestPublishRecordsPayload(t *testing.T) {
	mock := newMemCommands()
	client := &Client{store: mock}
	require.NoError(t, client.Publish(context.Background(), "ag:realtime:orders", []byte(`{"orderId":1}`)))
	assert.Equal(t, []string{`{"orderId":1}`}, mock.published["ag:realtime:orders"])
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	assert.Error(t, client.Ping(context.Background()))
	_, _, err := client.FixedWindowAllow(context.Background(), "s", 1, time.Second)
	assert.ErrorIs(t, err, errNotInitialized)
	_, _, err = client.Subscribe(context.Background(), "ch")
	assert.Error(t, err)
	_, err = client.CompareAndDelete(context.Background(), "k", "v")
	assert.Error(t, err)
	_, err = client.CompareAndExpire(context.Background(), "k", "v", time.Minute)
	assert.Error(t, err)
	assert.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "ag:idempotency:orders:create:key-1", client.IdempotencyKey("orders:create", "key-1"))
	assert.Equal(t, "ag:rate_limit:scope", client.RateLimitKey("scope"))
	assert.Equal(t, "ag:session:sid", client.SessionKey("sid"))
	assert.Equal(t, "ag:lock:cron", client.LockKey("cron"))
	assert.Equal(t, "ag:webhook:stripe:evt_1", client.WebhookEventKey("stripe", "evt_1"))
	assert.Equal(t, "ag:idempotency:scope", client.IdempotencyKey("scope", " "))
	assert.Equal(t, "ag", key())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

type memCommands struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
	published   map[string][]string
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMemCommands() *memCommands {
	return &memCommands{
		data:      make(map[string]string),
		incr:      make(map[string]int64),
		published: make(map[string][]string),
	}
}

func (m *memCommands) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memCommands) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *memCommands) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memCommands) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *memCommands) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *memCommands) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *memCommands) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *memCommands) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	var payload string
	switch v := message.(type) {
	case []byte:
		payload = string(v)
	default:
		payload = fmt.Sprint(v)
	}
	m.published[channel] = append(m.published[channel], payload)
	return redis.NewIntResult(1, nil)
}
