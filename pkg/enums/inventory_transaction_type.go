package enums

import "fmt"

// InventoryTransactionType classifies a signed stock movement.
type InventoryTransactionType string

const (
	InventoryTxRestock          InventoryTransactionType = "restock"
	InventoryTxOrderConsumption InventoryTransactionType = "order_consumption"
	InventoryTxWaste            InventoryTransactionType = "waste"
	InventoryTxAdjustment       InventoryTransactionType = "adjustment"
)

var validInventoryTransactionTypes = []InventoryTransactionType{
	InventoryTxRestock,
	InventoryTxOrderConsumption,
	InventoryTxWaste,
	InventoryTxAdjustment,
}

// String implements fmt.Stringer.
func (t InventoryTransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known InventoryTransactionType.
func (t InventoryTransactionType) IsValid() bool {
	for _, candidate := range validInventoryTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseInventoryTransactionType converts raw input into an InventoryTransactionType.
func ParseInventoryTransactionType(value string) (InventoryTransactionType, error) {
	for _, candidate := range validInventoryTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory transaction type %q", value)
}
