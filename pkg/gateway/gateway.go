package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
)

// Event is a verified, provider-agnostic gateway result. Controllers and the
// reconciliation layer only ever see this shape; provider payloads stay inside
// the provider clients.
type Event struct {
	Gateway   enums.GatewayProvider
	Reference string
	Outcome   enums.GatewayOutcome
	// Status is the provider's raw status string, kept for failure reasons
	// and audit logs.
	Status        string
	Channel       string
	TransactionID string
	PaidAt        *time.Time
	Raw           json.RawMessage
}

// InitializeInput carries the fields needed to start a gateway charge.
type InitializeInput struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	Email       string
	PhoneNumber string
	CallbackURL string
}

// InitResult is what the caller needs to hand back to the client app.
type InitResult struct {
	Reference        string
	AuthorizationURL string
}

// Client abstracts a payment gateway at the verify/initiate boundary.
type Client interface {
	Provider() enums.GatewayProvider
	// VerifySignature authenticates a webhook delivery over the raw body
	// bytes. Implementations must reject before any payload parsing happens.
	VerifySignature(header http.Header, body []byte) error
	ParseWebhook(body []byte) (*Event, error)
	Verify(ctx context.Context, reference string) (*Event, error)
	Initialize(ctx context.Context, input InitializeInput) (*InitResult, error)
}
