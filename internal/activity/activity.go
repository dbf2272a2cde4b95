package activity

// Entity types recorded on activity rows.
const (
	EntityOrder            = "order"
	EntityInventoryItem    = "inventory_item"
	EntityPurchaseOrder    = "purchase_order"
	EntityConciergeRequest = "concierge_request"
	EntityPayment          = "payment"
	EntityNotification     = "notification"
)

// Actions recorded on activity rows.
const (
	ActionOrderCreated        = "order_created"
	ActionOrderUpdated        = "order_updated"
	ActionOrderStatusChanged  = "order_status_changed"
	ActionOrderDeleted        = "order_deleted"
	ActionInventoryConsumed   = "inventory_consumed"
	ActionInventoryAdjusted   = "inventory_transaction"
	ActionNotificationSent    = "notification_sent"
	ActionNotificationFailed  = "notification_failed"
	ActionConciergeUpdated    = "concierge_updated"
	ActionPurchaseOrderChange = "purchase_order_changed"
	ActionPaymentSucceeded    = "payment_succeeded"
	ActionPaymentFailed       = "payment_failed"
)

// Entry is the input for a new activity row. Details is marshalled to JSON.
type Entry struct {
	UserID     *uint
	Action     string
	EntityType string
	EntityID   *uint
	Details    any
}

// ListQuery filters the activity feed.
type ListQuery struct {
	EntityType string
	EntityID   *uint
	Action     string
	Limit      int
	Cursor     string
}
