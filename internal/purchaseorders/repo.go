package purchaseorders

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

// Repository persists purchase orders and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, po *models.PurchaseOrder) error
	FindByID(ctx context.Context, id uint) (*models.PurchaseOrder, error)
	FindDetail(ctx context.Context, id uint) (*models.PurchaseOrder, error)
	List(ctx context.Context, filters Filters, cursor *pagination.Cursor) ([]models.PurchaseOrder, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
	VendorExists(ctx context.Context, id uint) (bool, error)
	CreateItems(ctx context.Context, items []models.PurchaseOrderItem) error
	FindItem(ctx context.Context, id uint) (*models.PurchaseOrderItem, error)
	ListItems(ctx context.Context, purchaseOrderID uint) ([]models.PurchaseOrderItem, error)
	UpdateItem(ctx context.Context, id uint, updates map[string]any) error
	DeleteItem(ctx context.Context, id uint) error
	RecalculateTotal(ctx context.Context, purchaseOrderID uint) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, po *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit("Items", "Vendor").Create(po).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) FindDetail(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Vendor").
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) List(ctx context.Context, filters Filters, cursor *pagination.Cursor) ([]models.PurchaseOrder, error) {
	q := r.db.WithContext(ctx).Model(&models.PurchaseOrder{})
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.VendorID != nil {
		q = q.Where("vendor_id = ?", *filters.VendorID)
	}
	if filters.Location != nil {
		q = q.Where("location = ?", *filters.Location)
	}
	var rows []models.PurchaseOrder
	err := q.Scopes(pagination.Scope(cursor, filters.Limit)).Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	return updateByID(ctx, r.db, &models.PurchaseOrder{}, id, updates)
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("purchase_order_id = ?", id).Delete(&models.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	return deleteByID(ctx, r.db, &models.PurchaseOrder{}, id)
}

func (r *repository) VendorExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateItems(ctx context.Context, items []models.PurchaseOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindItem(ctx context.Context, id uint) (*models.PurchaseOrderItem, error) {
	var item models.PurchaseOrderItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, purchaseOrderID uint) ([]models.PurchaseOrderItem, error) {
	var rows []models.PurchaseOrderItem
	err := r.db.WithContext(ctx).Where("purchase_order_id = ?", purchaseOrderID).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateItem(ctx context.Context, id uint, updates map[string]any) error {
	return updateByID(ctx, r.db, &models.PurchaseOrderItem{}, id, updates)
}

func (r *repository) DeleteItem(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &models.PurchaseOrderItem{}, id)
}

// RecalculateTotal rewrites the cached total from the current lines.
func (r *repository) RecalculateTotal(ctx context.Context, purchaseOrderID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderItem{}).
		Select("CAST(COALESCE(SUM(quantity * unit_cost_cents), 0) AS BIGINT)").
		Where("purchase_order_id = ?", purchaseOrderID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if err := r.Update(ctx, purchaseOrderID, map[string]any{"total_cost_cents": total}); err != nil {
		return 0, err
	}
	return total, nil
}

func updateByID(ctx context.Context, db *gorm.DB, model any, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, db *gorm.DB, model any, id uint) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
