package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

// Repository persists inventory items and their transaction ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	FindItem(ctx context.Context, id uint) (*models.InventoryItem, error)
	ListItems(ctx context.Context, filters ItemFilters) ([]models.InventoryItem, error)
	UpdateItem(ctx context.Context, id uint, updates map[string]any) error
	DeleteItem(ctx context.Context, id uint) error
	LowStock(ctx context.Context, location *enums.Location) ([]models.InventoryItem, error)
	InsertTransaction(ctx context.Context, txn *models.InventoryTransaction) error
	ApplyStockDelta(ctx context.Context, itemID uint, delta decimal.Decimal, checkedAt time.Time, restocked bool) error
	ListTransactions(ctx context.Context, filters TransactionFilters) ([]models.InventoryTransaction, error)
	OrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, *models.Order, error)
	Ingredients(ctx context.Context, menuItemIDs []uint) (map[uint][]models.MenuItemIngredient, error)
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

func (r *repository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context, filters ItemFilters) ([]models.InventoryItem, error) {
	q := r.db.WithContext(ctx).Model(&models.InventoryItem{})
	if filters.Location != nil {
		q = q.Where("location = ?", *filters.Location)
	}
	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if filters.LowOnly {
		q = q.Where("in_stock <= reorder_point")
	}
	var rows []models.InventoryItem
	err := q.Order("location ASC, name ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateItem(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InventoryItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) LowStock(ctx context.Context, location *enums.Location) ([]models.InventoryItem, error) {
	return r.ListItems(ctx, ItemFilters{Location: location, LowOnly: true})
}

func (r *repository) InsertTransaction(ctx context.Context, txn *models.InventoryTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// ApplyStockDelta adds delta to the cached stock in a single statement.
func (r *repository) ApplyStockDelta(ctx context.Context, itemID uint, delta decimal.Decimal, checkedAt time.Time, restocked bool) error {
	updates := map[string]any{
		"in_stock":          gorm.Expr("in_stock + CAST(? AS NUMERIC)", delta.String()),
		"last_checked_date": checkedAt,
	}
	if restocked {
		updates["last_restock_date"] = checkedAt
	}
	return r.UpdateItem(ctx, itemID, updates)
}

func (r *repository) ListTransactions(ctx context.Context, filters TransactionFilters) ([]models.InventoryTransaction, error) {
	q := r.db.WithContext(ctx).Model(&models.InventoryTransaction{})
	if filters.InventoryItemID != nil {
		q = q.Where("inventory_item_id = ?", *filters.InventoryItemID)
	}
	if filters.OrderID != nil {
		q = q.Where("order_id = ?", *filters.OrderID)
	}
	if filters.Type != nil {
		q = q.Where("transaction_type = ?", *filters.Type)
	}
	var rows []models.InventoryTransaction
	err := q.Order("id DESC").Limit(pagination.NormalizeLimit(filters.Limit)).Find(&rows).Error
	return rows, err
}

func (r *repository) OrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, *models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, nil, err
	}
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return items, &order, nil
}

func (r *repository) Ingredients(ctx context.Context, menuItemIDs []uint) (map[uint][]models.MenuItemIngredient, error) {
	out := make(map[uint][]models.MenuItemIngredient, len(menuItemIDs))
	if len(menuItemIDs) == 0 {
		return out, nil
	}
	var rows []models.MenuItemIngredient
	if err := r.db.WithContext(ctx).Where("menu_item_id IN ?", menuItemIDs).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.MenuItemID] = append(out[row.MenuItemID], row)
	}
	return out, nil
}
