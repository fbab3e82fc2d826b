package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
)

// LoyaltyEvent records a points credit. The unique (order_id, type) pair
// makes the completion award at-most-once even if the trigger fires twice.
type LoyaltyEvent struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID              `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_loyalty_once_per_order,priority:1"`
	CustomerID uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index"`
	Type       enums.LoyaltyEventType `gorm:"column:type;type:loyalty_event_type;not null;uniqueIndex:idx_loyalty_once_per_order,priority:2"`
	Points     int                    `gorm:"column:points;not null"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}
