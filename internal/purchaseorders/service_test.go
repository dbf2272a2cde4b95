package purchaseorders

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/dbtest"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB, models.Vendor) {
	t.Helper()
	client, conn := dbtest.Client(t)
	vendor := models.Vendor{Name: "Olympus Dairy", IsActive: true}
	require.NoError(t, conn.Create(&vendor).Error)

	recorder, err := activity.NewService(activity.NewRepository(conn), logger.Nop())
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), client, recorder)
	require.NoError(t, err)
	return svc, conn, vendor
}

func storedTotal(t *testing.T, conn *gorm.DB, id uint) int64 {
	t.Helper()
	var po models.PurchaseOrder
	require.NoError(t, conn.First(&po, id).Error)
	return po.TotalCostCents
}

func TestCreatePurchaseOrderWithItems(t *testing.T) {
	svc, conn, vendor := newTestService(t)
	actor := uint(7)

	po, err := svc.Create(context.Background(), CreateInput{
		VendorID: vendor.ID,
		Location: enums.LocationMykonos,
		Items: []ItemInput{
			{Description: "Feta 2kg", Quantity: 3, UnitCostCents: 1900},
			{Description: "Yoghurt", Quantity: 10, UnitCostCents: 250},
		},
		ActorUserID: &actor,
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^PO-\d{8}-[A-Z0-9]{4}$`), po.PONumber)
	assert.Equal(t, enums.PurchaseOrderDraft, po.Status)
	assert.Equal(t, int64(3*1900+10*250), po.TotalCostCents)
	require.Len(t, po.Items, 2)
	require.NotNil(t, po.Vendor)
	assert.Equal(t, "Olympus Dairy", po.Vendor.Name)

	var logs []models.ActivityLog
	require.NoError(t, conn.Where("entity_type = ?", activity.EntityPurchaseOrder).Find(&logs).Error)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, actor, *logs[0].UserID)
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	svc, conn, vendor := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{VendorID: 99, Location: enums.LocationMykonos})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{VendorID: vendor.ID, Location: "athens"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, CreateInput{VendorID: vendor.ID, Location: enums.LocationMykonos, Items: []ItemInput{{Description: "x", Quantity: 0}}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, conn.Model(&models.PurchaseOrder{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestItemMutationsRecalculateTotal(t *testing.T) {
	svc, conn, vendor := newTestService(t)
	ctx := context.Background()

	po, err := svc.Create(ctx, CreateInput{VendorID: vendor.ID, Location: enums.LocationThessaloniki})
	require.NoError(t, err)
	assert.Zero(t, po.TotalCostCents)

	first, err := svc.AddItem(ctx, ItemInput{PurchaseOrderID: po.ID, Description: "Olive oil 5l", Quantity: 2, UnitCostCents: 3500})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.Equal(t, int64(7000), storedTotal(t, conn, po.ID))

	second, err := svc.AddItem(ctx, ItemInput{PurchaseOrderID: po.ID, Description: "Oregano", Quantity: 4, UnitCostCents: 120})
	require.NoError(t, err)
	assert.Equal(t, int64(7480), storedTotal(t, conn, po.ID))

	qty := 5
	updated, err := svc.UpdateItem(ctx, first.ID, ItemUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)
	assert.Equal(t, int64(5*3500+480), storedTotal(t, conn, po.ID))

	require.NoError(t, svc.DeleteItem(ctx, second.ID))
	assert.Equal(t, int64(17500), storedTotal(t, conn, po.ID))

	require.NoError(t, svc.DeleteItem(ctx, first.ID))
	assert.Zero(t, storedTotal(t, conn, po.ID))

	err = svc.DeleteItem(ctx, first.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddItem(ctx, ItemInput{PurchaseOrderID: 404, Description: "x", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	zero := 0
	_, err = svc.UpdateItem(ctx, first.ID, ItemUpdate{Quantity: &zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateListAndDeletePurchaseOrder(t *testing.T) {
	svc, conn, vendor := newTestService(t)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		po, err := svc.Create(ctx, CreateInput{VendorID: vendor.ID, Location: enums.LocationThessaloniki, Items: []ItemInput{{Description: "Flour", Quantity: 1, UnitCostCents: 100}}})
		require.NoError(t, err)
		ids = append(ids, po.ID)
	}

	submitted := enums.PurchaseOrderSubmitted
	po, err := svc.Update(ctx, ids[0], UpdateInput{Status: &submitted})
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseOrderSubmitted, po.Status)

	bogus := enums.PurchaseOrderStatus("shipped")
	_, err = svc.Update(ctx, ids[0], UpdateInput{Status: &bogus})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	page, err := svc.List(ctx, Filters{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	require.NotEmpty(t, page.NextCursor)

	next, err := svc.List(ctx, Filters{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, ids[0], next.Items[0].ID)

	onlySubmitted, err := svc.List(ctx, Filters{Status: &submitted})
	require.NoError(t, err)
	require.Len(t, onlySubmitted.Items, 1)

	require.NoError(t, svc.Delete(ctx, ids[1], nil))
	_, err = svc.Get(ctx, ids[1])
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var lines int64
	require.NoError(t, conn.Model(&models.PurchaseOrderItem{}).Where("purchase_order_id = ?", ids[1]).Count(&lines).Error)
	assert.Zero(t, lines)
}
