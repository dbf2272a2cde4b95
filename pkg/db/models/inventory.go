package models

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// InventoryItem is a stock keeping record per kitchen. InStock only moves
// through InventoryTransaction rows.
type InventoryItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"column:name;not null" json:"name"`
	Category        string          `gorm:"column:category" json:"category"`
	Unit            string          `gorm:"column:unit;not null" json:"unit"`
	InStock         decimal.Decimal `gorm:"column:in_stock;type:numeric(12,3);not null;default:0" json:"inStock"`
	ReorderPoint    decimal.Decimal `gorm:"column:reorder_point;type:numeric(12,3);not null;default:0" json:"reorderPoint"`
	IdealStock      decimal.Decimal `gorm:"column:ideal_stock;type:numeric(12,3);not null;default:0" json:"idealStock"`
	Location        enums.Location  `gorm:"column:location;type:text;not null;index" json:"location"`
	UnitCostCents   int64           `gorm:"column:unit_cost_cents;not null;default:0" json:"unitCostCents"`
	VendorID        *uint           `gorm:"column:vendor_id" json:"vendorId,omitempty"`
	LastCheckedDate *time.Time      `gorm:"column:last_checked_date" json:"lastCheckedDate,omitempty"`
	LastRestockDate *time.Time      `gorm:"column:last_restock_date" json:"lastRestockDate,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// IsLow reports whether stock is at or below the reorder point.
func (i InventoryItem) IsLow() bool {
	return i.InStock.LessThanOrEqual(i.ReorderPoint)
}

// InventoryTransaction is an immutable signed stock movement.
type InventoryTransaction struct {
	ID              uint                           `gorm:"primaryKey" json:"id"`
	InventoryItemID uint                           `gorm:"column:inventory_item_id;not null;index" json:"inventoryItemId"`
	Quantity        decimal.Decimal                `gorm:"column:quantity;type:numeric(12,3);not null" json:"quantity"`
	TransactionType enums.InventoryTransactionType `gorm:"column:transaction_type;type:text;not null" json:"transactionType"`
	OrderID         *uint                          `gorm:"column:order_id;index" json:"orderId,omitempty"`
	Location        enums.Location                 `gorm:"column:location;type:text" json:"location"`
	Notes           *string                        `gorm:"column:notes" json:"notes,omitempty"`
	ActorUserID     *uint                          `gorm:"column:actor_user_id" json:"actorUserId,omitempty"`
	CreatedAt       time.Time                      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
