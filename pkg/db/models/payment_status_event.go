package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
)

// PaymentStatusEvent is one append-only entry in a payment's status history.
type PaymentStatusEvent struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID uuid.UUID           `gorm:"column:payment_id;type:uuid;not null;index"`
	Status    enums.PaymentStatus `gorm:"column:status;type:payment_status;not null"`
	ActorID   uuid.UUID           `gorm:"column:actor_id;type:uuid;not null"`
	ActorRole enums.ActorRole     `gorm:"column:actor_role;type:actor_role;not null"`
	Notes     *string             `gorm:"column:notes"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
}
