package enums

import "fmt"

// OrderStatus tracks where a catering order is in its lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusInTransit  OrderStatus = "in_transit"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatusSteps is the forward ordering shown to clients. It is advisory
// only: any status may be set from any other status.
var OrderStatusSteps = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusInTransit,
	OrderStatusDelivered,
}

var validOrderStatuses = append(append([]OrderStatus{}, OrderStatusSteps...), OrderStatusCancelled)

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further work is expected on the order.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OwnerEditable reports whether the owning client may still change the order.
func (s OrderStatus) OwnerEditable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// NotificationType maps a new status onto the notification it triggers.
func (s OrderStatus) NotificationType() NotificationType {
	switch s {
	case OrderStatusCancelled:
		return NotificationOrderCancelled
	case OrderStatusReady:
		return NotificationOrderReady
	case OrderStatusDelivered:
		return NotificationOrderDelivered
	default:
		return NotificationOrderUpdated
	}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
