package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

// Order is the customer-owned laundry order aggregate. Total is derived
// from the money ledger and recomputed on every mutation, never taken
// from input.
type Order struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber  int64              `gorm:"column:order_number;not null;uniqueIndex;default:nextval('order_number_seq')"`
	CustomerID   uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index"`
	ProviderID   *uuid.UUID         `gorm:"column:provider_id;type:uuid;index"`
	Status       enums.OrderStatus  `gorm:"column:status;type:order_status;not null;default:'pending'"`
	Urgent       bool               `gorm:"column:urgent;not null;default:false"`
	PickupAddr   *types.Address     `gorm:"column:pickup_address;type:address_t"`
	DeliveryAddr *types.Address     `gorm:"column:delivery_address;type:address_t"`
	PickupDate   *time.Time         `gorm:"column:pickup_date"`
	DeliveryDate *time.Time         `gorm:"column:delivery_date"`
	Subtotal     decimal.Decimal    `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax          decimal.Decimal    `gorm:"column:tax;type:numeric(12,2);not null"`
	TaxOverride  bool               `gorm:"column:tax_override;not null;default:false"`
	DeliveryFee  decimal.Decimal    `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Discount     decimal.Decimal    `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total        decimal.Decimal    `gorm:"column:total;type:numeric(12,2);not null"`
	GarmentCount int                `gorm:"column:garment_count;not null;default:0"`
	Notes        *string            `gorm:"column:notes"`
	AdminNotes   *string            `gorm:"column:admin_notes"`
	Items        []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History      []OrderStatusEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CompletedAt  *time.Time         `gorm:"column:completed_at"`
	CancelledAt  *time.Time         `gorm:"column:cancelled_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
