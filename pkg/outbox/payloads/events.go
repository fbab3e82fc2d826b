package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
)

// OrderCreatedEvent signals a freshly placed order with its pending payment.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID           `json:"order_id"`
	OrderNumber int64               `json:"order_number"`
	CustomerID  uuid.UUID           `json:"customer_id"`
	PaymentID   uuid.UUID           `json:"payment_id"`
	Method      enums.PaymentMethod `json:"method"`
	Total       decimal.Decimal     `json:"total"`
}

// OrderStatusChangedEvent is emitted on every successful order transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	ProviderID *uuid.UUID        `json:"provider_id,omitempty"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	Notes      string            `json:"notes,omitempty"`
}

// OrderAssignedEvent surfaces a provider binding, self-service or admin.
type OrderAssignedEvent struct {
	OrderID       uuid.UUID  `json:"order_id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	ProviderID    uuid.UUID  `json:"provider_id"`
	PrevProvider  *uuid.UUID `json:"prev_provider_id,omitempty"`
	AdminOverride bool       `json:"admin_override"`
}

// OrderCompletedEvent is emitted when an order first reaches completed.
type OrderCompletedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	ProviderID  *uuid.UUID      `json:"provider_id,omitempty"`
	Total       decimal.Decimal `json:"total"`
	CompletedAt time.Time       `json:"completed_at"`
}

// OrderCancelledEvent is emitted whenever an order is cancelled.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	From        enums.OrderStatus `json:"from"`
	CancelledAt time.Time         `json:"cancelled_at"`
	Reason      string            `json:"reason,omitempty"`
}

// PaymentCompletedEvent is emitted when a payment settles.
type PaymentCompletedEvent struct {
	PaymentID   uuid.UUID       `json:"payment_id"`
	OrderID     uuid.UUID       `json:"order_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Transaction string          `json:"transaction_id,omitempty"`
	Channel     string          `json:"channel,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}

// PaymentFailedEvent is emitted when the gateway reports a definitive failure.
type PaymentFailedEvent struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Reason     string    `json:"reason,omitempty"`
}

// PaymentRefundedEvent annotates a refund against a payment.
type PaymentRefundedEvent struct {
	PaymentID  uuid.UUID       `json:"payment_id"`
	OrderID    uuid.UUID       `json:"order_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason,omitempty"`
	RefundedAt time.Time       `json:"refunded_at"`
}

// NotificationRequestedEvent tells the notification worker to persist an
// in-app notification for a user.
type NotificationRequestedEvent struct {
	UserID    uuid.UUID              `json:"user_id"`
	OrderID   uuid.UUID              `json:"order_id"`
	PaymentID *uuid.UUID             `json:"payment_id,omitempty"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
}
