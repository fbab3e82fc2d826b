package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

// CreateGarmentInput describes one garment supplied at order composition
// time. UnitPrice nil inherits the owning line's unit price.
type CreateGarmentInput struct {
	Description  string
	Instructions *string
	UnitPrice    *decimal.Decimal
}

// CreateItemInput is one service line of a new order.
type CreateItemInput struct {
	Service   string
	Quantity  int
	UnitPrice decimal.Decimal
	Garments  []CreateGarmentInput
}

// CreateOrderInput carries everything needed to create an order with its
// pending payment.
type CreateOrderInput struct {
	CustomerID    uuid.UUID
	Items         []CreateItemInput
	PickupAddr    *types.Address
	DeliveryAddr  *types.Address
	PickupDate    *time.Time
	DeliveryDate  *time.Time
	Urgent        bool
	PaymentMethod enums.PaymentMethod
	Tax           *decimal.Decimal
	DeliveryFee   *decimal.Decimal
	Discount      decimal.Decimal
	Notes         *string
}

// CreateOrderResult is the order/payment pair written by Create.
type CreateOrderResult struct {
	Order   *models.Order
	Payment *models.Payment
}

// TransitionInput is a request to move an order to a new status.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	Actor   types.Actor
	Notes   *string
}

// AddGarmentInput appends a garment to an existing order line.
type AddGarmentInput struct {
	OrderID      uuid.UUID
	ItemPosition int
	Description  string
	Instructions *string
	Actor        types.Actor
}

// ConfirmGarmentInput records provider attestation of physical receipt.
type ConfirmGarmentInput struct {
	OrderID   uuid.UUID
	ItemCode  string
	Confirmed bool
	Actor     types.Actor
}

// ListFilters narrows the order listing.
type ListFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderSummary is one row of the paginated order list.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber int64             `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
	Urgent      bool              `json:"urgent"`
	Total       decimal.Decimal   `json:"total"`
	ItemCount   int               `json:"item_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderList wraps paginated orders plus the next cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
