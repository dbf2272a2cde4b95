package payments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type markerEntry struct {
	value string
	ttl   time.Duration
}

type memMarkers struct {
	entries map[string]markerEntry
}

func newMemMarkers() *memMarkers {
	return &memMarkers{entries: map[string]markerEntry{}}
}

func (m *memMarkers) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = markerEntry{value: value.(string), ttl: ttl}
	return true, nil
}

func (m *memMarkers) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.entries[key] = markerEntry{value: value.(string), ttl: ttl}
	return nil
}

func (m *memMarkers) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *memMarkers) WebhookEventKey(provider, eventID string) string {
	return "ag:webhook:" + provider + ":" + eventID
}

func TestEventGuardClaimCompleteRelease(t *testing.T) {
	ctx := context.Background()
	store := newMemMarkers()
	guard, err := NewEventGuard(store, 72*time.Hour, "stripe")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.Equal(t, markerEntry{value: markerInFlight, ttl: claimTTL}, store.entries["ag:webhook:stripe:evt_1"])

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen, "a claimed event is not handed out twice")

	require.NoError(t, guard.Complete(ctx, "evt_1"))
	assert.Equal(t, markerEntry{value: markerDone, ttl: 72 * time.Hour}, store.entries["ag:webhook:stripe:evt_1"])

	seen, err = guard.CheckAndMark(ctx, "evt_2")
	require.NoError(t, err)
	require.False(t, seen)
	require.NoError(t, guard.Release(ctx, "evt_2"))
	seen, err = guard.CheckAndMark(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, seen, "a released event can be claimed again")
}

func TestEventGuardValidation(t *testing.T) {
	guard, err := NewEventGuard(newMemMarkers(), time.Hour, "stripe")
	require.NoError(t, err)
	_, err = guard.CheckAndMark(context.Background(), "")
	assert.ErrorIs(t, err, ErrEventIDRequired)
	assert.ErrorIs(t, guard.Complete(context.Background(), ""), ErrEventIDRequired)

	_, err = NewEventGuard(nil, time.Hour, "stripe")
	assert.Error(t, err)
	_, err = NewEventGuard(newMemMarkers(), time.Hour, "")
	assert.Error(t, err)
	_, err = NewEventGuard(newMemMarkers(), time.Second, "stripe")
	assert.Error(t, err)
}
