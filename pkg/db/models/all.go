package models

// All lists every persisted model. Tests use it to build sqlite schemas; the
// postgres schema lives in the goose migrations.
func All() []any {
	return []any{
		&User{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
		&MenuItem{},
		&MenuItemIngredient{},
		&InventoryItem{},
		&InventoryTransaction{},
		&Vendor{},
		&PurchaseOrder{},
		&PurchaseOrderItem{},
		&ConciergeRequest{},
		&ActivityLog{},
		&PaymentRecord{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
