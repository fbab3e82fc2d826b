package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
)

// Payment is the settlement record for an order. At most one payment
// outside {failed, cancelled} may exist per order, enforced by a partial
// unique index on order_id.
type Payment struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID  uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	ProviderID  *uuid.UUID             `gorm:"column:provider_id;type:uuid"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:numeric(12,2);not null"`
	Method      enums.PaymentMethod    `gorm:"column:method;type:payment_method;not null;default:'cash'"`
	Status      enums.PaymentStatus    `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	Gateway     *enums.GatewayProvider `gorm:"column:gateway;type:gateway_provider"`
	Reference   *string                `gorm:"column:reference;type:text;uniqueIndex"`
	Transaction *string                `gorm:"column:transaction_id;type:text"`
	Channel     *string                `gorm:"column:channel;type:text"`
	RawResponse json.RawMessage        `gorm:"column:raw_response;type:jsonb"`

	RefundAmount *decimal.Decimal `gorm:"column:refund_amount;type:numeric(12,2)"`
	RefundedAt   *time.Time       `gorm:"column:refunded_at"`
	RefundReason *string          `gorm:"column:refund_reason"`

	FailureReason *string    `gorm:"column:failure_reason"`
	CompletedAt   *time.Time `gorm:"column:completed_at"`

	History   []PaymentStatusEvent `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
