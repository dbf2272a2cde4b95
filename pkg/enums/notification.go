package enums

import "fmt"

// NotificationType identifies the template and recipient set of a notification.
type NotificationType string

const (
	NotificationNewOrder       NotificationType = "NEW_ORDER"
	NotificationOrderUpdated   NotificationType = "ORDER_UPDATED"
	NotificationOrderReady     NotificationType = "ORDER_READY"
	NotificationOrderDelivered NotificationType = "ORDER_DELIVERED"
	NotificationOrderCancelled NotificationType = "ORDER_CANCELLED"
)

var validNotificationTypes = []NotificationType{
	NotificationNewOrder,
	NotificationOrderUpdated,
	NotificationOrderReady,
	NotificationOrderDelivered,
	NotificationOrderCancelled,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ForwardsToWebhook reports whether the type is also posted to the outbound
// automation webhook and chat channel.
func (n NotificationType) ForwardsToWebhook() bool {
	switch n {
	case NotificationNewOrder, NotificationOrderUpdated, NotificationOrderCancelled:
		return true
	default:
		return false
	}
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
