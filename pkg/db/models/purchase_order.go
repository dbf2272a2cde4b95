package models

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// PurchaseOrder is a procurement order. TotalCostCents caches the sum of its
// item lines and is recalculated whenever an item changes.
type PurchaseOrder struct {
	ID             uint                      `gorm:"primaryKey" json:"id"`
	PONumber       string                    `gorm:"column:po_number;not null;uniqueIndex" json:"poNumber"`
	VendorID       uint                      `gorm:"column:vendor_id;not null;index" json:"vendorId"`
	Status         enums.PurchaseOrderStatus `gorm:"column:status;type:text;not null;default:'draft'" json:"status"`
	Location       enums.Location            `gorm:"column:location;type:text;not null" json:"location"`
	ExpectedDate   *time.Time                `gorm:"column:expected_date" json:"expectedDate,omitempty"`
	Notes          *string                   `gorm:"column:notes" json:"notes,omitempty"`
	TotalCostCents int64                     `gorm:"column:total_cost_cents;not null;default:0" json:"totalCostCents"`
	CreatedByID    *uint                     `gorm:"column:created_by_id" json:"createdById,omitempty"`
	Items          []PurchaseOrderItem       `gorm:"foreignKey:PurchaseOrderID" json:"items,omitempty"`
	Vendor         *Vendor                   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// PurchaseOrderItem is one line of a purchase order.
type PurchaseOrderItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PurchaseOrderID uint      `gorm:"column:purchase_order_id;not null;index" json:"purchaseOrderId"`
	InventoryItemID *uint     `gorm:"column:inventory_item_id" json:"inventoryItemId,omitempty"`
	Description     string    `gorm:"column:description;not null" json:"description"`
	Quantity        int       `gorm:"column:quantity;not null" json:"quantity"`
	UnitCostCents   int64     `gorm:"column:unit_cost_cents;not null" json:"unitCostCents"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
