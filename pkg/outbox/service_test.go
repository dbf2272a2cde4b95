package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/dbtest"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

func TestEmitNotificationStoresEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), logger.Nop())

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.EmitNotification(context.Background(), tx, 42, enums.NotificationNewOrder, &ActorRef{UserID: 7, Role: enums.UserRoleClient})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventNotificationRequested, rows[0].EventType)
	assert.Equal(t, enums.AggregateOrder, rows[0].AggregateType)
	assert.EqualValues(t, 42, rows[0].AggregateID)

	envelope, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.EqualValues(t, 7, envelope.Actor.UserID)

	payload, err := DecodeNotification(envelope)
	require.NoError(t, err)
	assert.EqualValues(t, 42, payload.OrderID)
	assert.Equal(t, enums.NotificationNewOrder, payload.NotificationType)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.EmitNotification(context.Background(), tx, 1, enums.NotificationOrderReady, nil); err != nil {
			return err
		}
		return errors.New("order write failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitRequiresTransactionAndType(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	assert.ErrorIs(t, svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventNotificationRequested}), ErrTxRequired)

	conn := dbtest.Open(t)
	assert.ErrorIs(t, svc.Emit(context.Background(), conn, DomainEvent{EventType: "order_shipped"}), ErrUnknownEventType)
}

func TestEmitLowStockDigestUsesInventoryAggregate(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	frozen := time.Date(2026, 5, 2, 4, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	require.NoError(t, svc.EmitLowStockDigest(context.Background(), conn, enums.LocationMykonos, 4))

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row).Error)
	assert.Equal(t, enums.AggregateInventoryItem, row.AggregateType)
	assert.Zero(t, row.AggregateID)

	envelope, err := DecodeEnvelope(row.Payload)
	require.NoError(t, err)
	assert.True(t, frozen.Equal(envelope.OccurredAt))
	digest, err := DecodeLowStockDigest(envelope)
	require.NoError(t, err)
	assert.Equal(t, 4, digest.ItemCount)
}

func TestRepositoryDispatchLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	ctx := context.Background()

	for i := uint(1); i <= 3; i++ {
		require.NoError(t, svc.EmitNotification(ctx, conn, i, enums.NotificationOrderUpdated, nil))
	}

	rows, err := repo.FetchUnpublishedForDispatch(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("smtp down")))
	require.NoError(t, repo.MarkTerminalTx(conn, rows[2].ID, errors.New("bad payload"), 3))

	pending, err := repo.FetchUnpublishedForDispatch(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, rows[1].ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "smtp down", *pending[0].LastError)

	deleted, err := repo.DeletePublishedBefore(conn, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	deleted, err = repo.DeletePublishedBefore(nil, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestDLQRepository(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewDLQRepository(conn)
	ctx := context.Background()

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)
	entry := models.OutboxDLQ{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   5,
		Payload:       []byte(`{"version":1}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
	}
	entry.EventID = uuid.New()
	require.NoError(t, repo.InsertTx(conn, entry))
	assert.Error(t, repo.InsertTx(nil, entry))

	found, err := repo.FindByEventID(ctx, entry.EventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.NotNil(t, found.ErrorMessage)
	assert.Len(t, *found.ErrorMessage, maxDLQErrorLen)

	missing, err := repo.FindByEventID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	other := entry
	other.EventID = uuid.New()
	other.EventType = enums.EventLowStockDigest
	other.ErrorReason = enums.OutboxDLQReasonNonRetryable
	other.ErrorMessage = nil
	require.NoError(t, repo.InsertTx(conn, other))

	bogus := entry
	bogus.EventID = uuid.New()
	bogus.ErrorReason = "timeout"
	assert.Error(t, repo.InsertTx(conn, bogus))

	list, err := repo.List(ctx, DLQFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = repo.List(ctx, DLQFilter{Reason: enums.OutboxDLQReasonNonRetryable})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, other.EventID, list[0].EventID)

	list, err = repo.List(ctx, DLQFilter{EventType: enums.EventNotificationRequested, Limit: 5})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entry.EventID, list[0].EventID)

	purged, err := repo.DeleteFailedBefore(nil, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 2, purged)
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
	_, err = DecodeEnvelope([]byte(`{"version":1}`))
	assert.Error(t, err)

	_, err = DecodeNotification(PayloadEnvelope{Data: []byte(`{"orderId":0,"notificationType":"NEW_ORDER"}`)})
	assert.Error(t, err)
	_, err = DecodeNotification(PayloadEnvelope{Data: []byte(`{"orderId":3,"notificationType":"SOMETHING"}`)})
	assert.Error(t, err)

	digest, err := DecodeLowStockDigest(PayloadEnvelope{Data: []byte(`{"location":"mykonos","itemCount":2}`)})
	require.NoError(t, err)
	assert.Equal(t, enums.LocationMykonos, digest.Location)
	_, err = DecodeLowStockDigest(PayloadEnvelope{Data: []byte(`{"location":"athens"}`)})
	assert.Error(t, err)
}
