package activity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/dbtest"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

func uintPtr(v uint) *uint { return &v }

func TestRecordTxAndList(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		for i := uint(1); i <= 3; i++ {
			if err := svc.RecordTx(ctx, tx, Entry{
				Action:     ActionOrderCreated,
				EntityType: EntityOrder,
				EntityID:   uintPtr(i),
				Details:    map[string]any{"orderNumber": "AG-1"},
			}); err != nil {
				return err
			}
		}
		return nil
	}))
	svc.Record(ctx, Entry{Action: ActionNotificationSent, EntityType: EntityNotification, EntityID: uintPtr(1)})

	page, err := svc.List(ctx, ListQuery{EntityType: EntityOrder, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, *page.Items[0].EntityID)
	require.NotEmpty(t, page.NextCursor)

	var details map[string]string
	require.NoError(t, json.Unmarshal(page.Items[0].Details, &details))
	assert.Equal(t, "AG-1", details["orderNumber"])

	next, err := svc.List(ctx, ListQuery{EntityType: EntityOrder, Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Empty(t, next.NextCursor)

	byEntity, err := svc.List(ctx, ListQuery{EntityID: uintPtr(1)})
	require.NoError(t, err)
	assert.Len(t, byEntity.Items, 2)

	var total int64
	require.NoError(t, conn.Model(&models.ActivityLog{}).Count(&total).Error)
	assert.EqualValues(t, 4, total)
}

func TestRecordRejectsIncompleteEntry(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), logger.Nop())
	require.NoError(t, err)

	assert.Error(t, svc.RecordTx(context.Background(), conn, Entry{Action: ActionOrderCreated}))
	svc.Record(context.Background(), Entry{EntityType: EntityOrder})

	var total int64
	require.NoError(t, conn.Model(&models.ActivityLog{}).Count(&total).Error)
	assert.Zero(t, total)
}

func TestListRejectsBadCursor(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)), nil)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), ListQuery{Cursor: "not-a-cursor!"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
