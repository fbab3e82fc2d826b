package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
)

// TrackingStep is a projected display row derived from an order status
// change. It carries no state authority of its own.
type TrackingStep struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	OrderStatus enums.OrderStatus      `gorm:"column:order_status;type:order_status;not null"`
	Location    enums.TrackingLocation `gorm:"column:location;type:tracking_location;not null"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
