package enums

import "fmt"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationOrderStatusChanged NotificationType = "order_status_changed"
	NotificationPaymentCompleted   NotificationType = "payment_completed"
	NotificationPaymentFailed      NotificationType = "payment_failed"
	NotificationOrderAssigned      NotificationType = "order_assigned"
)

var validNotificationTypes = []NotificationType{
	NotificationOrderStatusChanged,
	NotificationPaymentCompleted,
	NotificationPaymentFailed,
	NotificationOrderAssigned,
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

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
