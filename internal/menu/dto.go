package menu

import "github.com/shopspring/decimal"

// ItemInput creates a menu item. Prices are euro cents per kitchen.
type ItemInput struct {
	Name                   string
	Description            string
	Category               string
	PriceThessalonikiCents int64
	PriceMykonosCents      int64
	DietaryTags            []string
	Available              bool
}

// ItemUpdate is a partial update of a menu item.
type ItemUpdate struct {
	Name                   *string
	Description            *string
	Category               *string
	PriceThessalonikiCents *int64
	PriceMykonosCents      *int64
	DietaryTags            *[]string
	Available              *bool
}

// Filters narrows the public menu listing.
type Filters struct {
	Category  string
	Available *bool
}

// IngredientInput is one recipe line for a replace-all update.
type IngredientInput struct {
	InventoryItemID uint
	Quantity        decimal.Decimal
}
