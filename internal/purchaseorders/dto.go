package purchaseorders

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// CreateInput opens a purchase order, optionally with its first lines.
type CreateInput struct {
	VendorID     uint
	Location     enums.Location
	Status       *enums.PurchaseOrderStatus
	ExpectedDate *time.Time
	Notes        *string
	Items        []ItemInput
	ActorUserID  *uint
}

// UpdateInput is a partial purchase order header update.
type UpdateInput struct {
	VendorID     *uint
	Location     *enums.Location
	Status       *enums.PurchaseOrderStatus
	ExpectedDate *time.Time
	Notes        *string
	ActorUserID  *uint
}

// ItemInput creates a purchase order line.
type ItemInput struct {
	PurchaseOrderID uint
	InventoryItemID *uint
	Description     string
	Quantity        int
	UnitCostCents   int64
}

// ItemUpdate is a partial line update.
type ItemUpdate struct {
	InventoryItemID *uint
	Description     *string
	Quantity        *int
	UnitCostCents   *int64
}

// Filters narrows the purchase order list.
type Filters struct {
	Status   *enums.PurchaseOrderStatus
	VendorID *uint
	Location *enums.Location
	Limit    int
	Cursor   string
}
