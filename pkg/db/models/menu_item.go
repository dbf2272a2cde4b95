package models

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// MenuItem is a catalog entry priced separately per kitchen.
type MenuItem struct {
	ID                     uint                 `gorm:"primaryKey" json:"id"`
	Name                   string               `gorm:"column:name;not null" json:"name"`
	Description            string               `gorm:"column:description" json:"description"`
	Category               string               `gorm:"column:category;not null;index" json:"category"`
	PriceThessalonikiCents int64                `gorm:"column:price_thessaloniki_cents;not null" json:"priceThessalonikiCents"`
	PriceMykonosCents      int64                `gorm:"column:price_mykonos_cents;not null" json:"priceMykonosCents"`
	DietaryTags            []string             `gorm:"column:dietary_tags;type:jsonb;serializer:json" json:"dietaryTags"`
	Available              bool                 `gorm:"column:available;not null;default:true" json:"available"`
	Ingredients            []MenuItemIngredient `gorm:"foreignKey:MenuItemID" json:"ingredients,omitempty"`
	CreatedAt              time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt              time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// PriceFor returns the price list entry for the kitchen.
func (m MenuItem) PriceFor(location enums.Location) int64 {
	if location == enums.LocationMykonos {
		return m.PriceMykonosCents
	}
	return m.PriceThessalonikiCents
}

// MenuItemIngredient is one recipe line: how much of an inventory item a
// single portion uses.
type MenuItemIngredient struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	MenuItemID      uint            `gorm:"column:menu_item_id;not null;index" json:"menuItemId"`
	InventoryItemID uint            `gorm:"column:inventory_item_id;not null" json:"inventoryItemId"`
	Quantity        decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null" json:"quantity"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
