package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// TransactionInput records one stock movement. Quantity is normalised by type:
// restock is always positive, waste and order consumption always negative,
// adjustments keep their sign.
type TransactionInput struct {
	InventoryItemID uint
	Quantity        decimal.Decimal
	Type            enums.InventoryTransactionType
	OrderID         *uint
	Location        *enums.Location
	Notes           *string
	ActorUserID     *uint
}

// ConsumeInput triggers recipe based consumption for an order.
type ConsumeInput struct {
	OrderID     uint
	Location    string
	ActorUserID *uint
}

// ConsumptionResult summarises one consumption run.
type ConsumptionResult struct {
	OrderID      uint                     `json:"orderId"`
	Location     enums.Location           `json:"location"`
	Transactions []ConsumedTransaction    `json:"transactions"`
	Totals       map[uint]decimal.Decimal `json:"totals"`
}

// ConsumedTransaction is the per ingredient outcome of a consumption run.
type ConsumedTransaction struct {
	TransactionID   uint            `json:"transactionId"`
	InventoryItemID uint            `json:"inventoryItemId"`
	Quantity        decimal.Decimal `json:"quantity"`
	InStock         decimal.Decimal `json:"inStock"`
}

// ItemInput creates an inventory item.
type ItemInput struct {
	Name          string
	Category      string
	Unit          string
	InStock       decimal.Decimal
	ReorderPoint  decimal.Decimal
	IdealStock    decimal.Decimal
	Location      enums.Location
	UnitCostCents int64
	VendorID      *uint
}

// ItemUpdate is a partial update. Stock can only move through transactions.
type ItemUpdate struct {
	Name          *string
	Category      *string
	Unit          *string
	ReorderPoint  *decimal.Decimal
	IdealStock    *decimal.Decimal
	Location      *enums.Location
	UnitCostCents *int64
	VendorID      *uint
}

// ItemFilters narrows the inventory list.
type ItemFilters struct {
	Location *enums.Location
	Category string
	LowOnly  bool
}

// TransactionFilters narrows the transaction ledger.
type TransactionFilters struct {
	InventoryItemID *uint
	OrderID         *uint
	Type            *enums.InventoryTransactionType
	Limit           int
}
