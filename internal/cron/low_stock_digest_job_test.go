package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

type stubLowStock struct {
	byLocation map[enums.Location][]models.InventoryItem
}

func (s stubLowStock) LowStock(_ context.Context, location *enums.Location) ([]models.InventoryItem, error) {
	return s.byLocation[*location], nil
}

type digestCall struct {
	location enums.Location
	count    int
}

type stubEmitter struct {
	calls []digestCall
	err   error
}

func (s *stubEmitter) EmitLowStockDigest(_ context.Context, _ *gorm.DB, location enums.Location, count int) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, digestCall{location, count})
	return nil
}

type memOnce struct {
	keys map[string]bool
}

func (m *memOnce) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memOnce) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.keys, key)
	}
	return nil
}

func newDigestJob(t *testing.T, emitter *stubEmitter, once onceStore, now *time.Time) Job {
	t.Helper()
	inventory := stubLowStock{byLocation: map[enums.Location][]models.InventoryItem{
		enums.LocationThessaloniki: {{Name: "Feta"}, {Name: "Tomato"}},
	}}
	job, err := NewLowStockDigestJob(LowStockDigestJobParams{
		Logger:    logger.Nop(),
		DB:        passthroughTx{},
		Inventory: inventory,
		Outbox:    emitter,
		Once:      once,
		Now:       func() time.Time { return *now },
	})
	require.NoError(t, err)
	return job
}

func TestLowStockDigestQueuesOncePerDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	emitter := &stubEmitter{}
	job := newDigestJob(t, emitter, &memOnce{keys: map[string]bool{}}, &now)

	require.NoError(t, job.Run(context.Background()))
	require.Equal(t, []digestCall{{enums.LocationThessaloniki, 2}}, emitter.calls)

	now = now.Add(3 * time.Hour)
	require.NoError(t, job.Run(context.Background()))
	require.Len(t, emitter.calls, 1)

	now = now.Add(24 * time.Hour)
	require.NoError(t, job.Run(context.Background()))
	require.Len(t, emitter.calls, 2)
}

func TestLowStockDigestWithoutOnceStoreEmitsEveryRun(t *testing.T) {
	now := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	emitter := &stubEmitter{}
	job := newDigestJob(t, emitter, nil, &now)

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))
	require.Len(t, emitter.calls, 2)
}

func TestLowStockDigestReleasesMarkerOnFailure(t *testing.T) {
	now := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	emitter := &stubEmitter{err: errors.New("db down")}
	once := &memOnce{keys: map[string]bool{}}
	job := newDigestJob(t, emitter, once, &now)

	require.Error(t, job.Run(context.Background()))
	require.Empty(t, once.keys)

	emitter.err = nil
	require.NoError(t, job.Run(context.Background()))
	require.Len(t, emitter.calls, 1)
}
