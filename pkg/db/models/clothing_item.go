package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClothingItem is an individually tracked garment within an order line.
// ItemCode is unique within the owning order; garments are never deleted.
type ClothingItem struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_garment_code_per_order,priority:1"`
	OrderItemID  uuid.UUID       `gorm:"column:order_item_id;type:uuid;not null;index"`
	ItemCode     string          `gorm:"column:item_code;type:text;not null;uniqueIndex:idx_garment_code_per_order,priority:2"`
	Description  string          `gorm:"column:description;type:text;not null"`
	Service      string          `gorm:"column:service;type:text;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Instructions *string         `gorm:"column:instructions"`
	Confirmed    bool            `gorm:"column:confirmed;not null;default:false"`
	ConfirmedAt  *time.Time      `gorm:"column:confirmed_at"`
	ConfirmedBy  *uuid.UUID      `gorm:"column:confirmed_by;type:uuid"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
