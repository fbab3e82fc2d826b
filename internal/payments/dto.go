package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

// CreateInput seeds a payment for a newly created order.
type CreateInput struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	ProviderID *uuid.UUID
	Amount     decimal.Decimal
	Method     enums.PaymentMethod
	Actor      types.Actor
}

// SetStatusInput is a manual payment status change (cash settlement,
// admin correction).
type SetStatusInput struct {
	PaymentID uuid.UUID
	Target    enums.PaymentStatus
	Actor     types.Actor
	Notes     *string
}

// RefundInput annotates a refund against a payment. It never changes the
// payment status.
type RefundInput struct {
	PaymentID uuid.UUID
	Amount    decimal.Decimal
	Reason    string
	Actor     types.Actor
}

// InitializeInput starts a gateway charge for an order's payment.
type InitializeInput struct {
	OrderID     uuid.UUID
	Gateway     enums.GatewayProvider
	Email       string
	PhoneNumber string
	CallbackURL string
	Actor       types.Actor
}

// InitializeResult returns what the client app needs to continue the
// gateway flow.
type InitializeResult struct {
	Payment          *models.Payment `json:"payment"`
	Reference        string          `json:"reference"`
	AuthorizationURL string          `json:"authorization_url,omitempty"`
}
