package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/freshfoldhq/freshfold-backend/pkg/config"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway"
)

// SignatureHeader carries the HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// subunitFactor converts major currency units to the kobo/pesewas subunit.
var subunitFactor = decimal.NewFromInt(100)

type client struct {
	secretKey string
	http      *resty.Client
}

// New builds a Paystack client from config. The resty client carries the
// configured timeout so synchronous verify calls never hang the caller.
func New(cfg config.PaystackConfig) (gateway.Client, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("paystack secret key required")
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.SecretKey).
		SetHeader("Content-Type", "application/json")
	return &client{secretKey: cfg.SecretKey, http: httpClient}, nil
}

func (c *client) Provider() enums.GatewayProvider {
	return enums.GatewayProviderPaystack
}

func (c *client) VerifySignature(header http.Header, body []byte) error {
	provided := header.Get(SignatureHeader)
	if provided == "" {
		return pkgerrors.New(pkgerrors.CodeUnverified, "missing paystack signature")
	}
	mac := hmac.New(sha512.New, []byte(c.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return pkgerrors.New(pkgerrors.CodeUnverified, "paystack signature mismatch")
	}
	return nil
}

type webhookPayload struct {
	Event string          `json:"event"`
	Data  transactionData `json:"data"`
}

type transactionData struct {
	ID        int64   `json:"id"`
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	Channel   string  `json:"channel"`
	PaidAt    *string `json:"paid_at"`
}

func (c *client) ParseWebhook(body []byte) (*gateway.Event, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed paystack webhook body")
	}
	if payload.Data.Reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paystack webhook missing reference")
	}
	return eventFromTransaction(payload.Data, body), nil
}

type verifyResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    transactionData `json:"data"`
}

func (c *client) Verify(ctx context.Context, reference string) (*gateway.Event, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/transaction/verify/" + reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "paystack verify request failed")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "paystack transaction not found")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("paystack verify returned status %d", resp.StatusCode()))
	}

	var parsed verifyResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paystack verify response")
	}
	if !parsed.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack verify rejected: "+parsed.Message)
	}
	return eventFromTransaction(parsed.Data, resp.Body()), nil
}

type initializeRequest struct {
	Email       string `json:"email"`
	AmountKobo  int64  `json:"amount"`
	Reference   string `json:"reference,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

func (c *client) Initialize(ctx context.Context, input gateway.InitializeInput) (*gateway.InitResult, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paystack initialize requires customer email")
	}

	// Paystack amounts are in the currency subunit.
	body := initializeRequest{
		Email:       input.Email,
		AmountKobo:  input.Amount.Mul(subunitFactor).IntPart(),
		Reference:   input.Reference,
		CallbackURL: input.CallbackURL,
		Currency:    input.Currency,
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/transaction/initialize")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "paystack initialize request failed")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("paystack initialize returned status %d", resp.StatusCode()))
	}

	var parsed initializeResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paystack initialize response")
	}
	if !parsed.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack initialize rejected: "+parsed.Message)
	}
	return &gateway.InitResult{
		Reference:        parsed.Data.Reference,
		AuthorizationURL: parsed.Data.AuthorizationURL,
	}, nil
}

func eventFromTransaction(data transactionData, raw []byte) *gateway.Event {
	event := &gateway.Event{
		Gateway:   enums.GatewayProviderPaystack,
		Reference: data.Reference,
		Outcome:   outcomeFromStatus(data.Status),
		Status:    data.Status,
		Channel:   data.Channel,
		Raw:       json.RawMessage(raw),
	}
	if data.ID != 0 {
		event.TransactionID = fmt.Sprintf("%d", data.ID)
	}
	if data.PaidAt != nil {
		if t, err := time.Parse(time.RFC3339, *data.PaidAt); err == nil {
			event.PaidAt = &t
		}
	}
	return event
}

func outcomeFromStatus(status string) enums.GatewayOutcome {
	switch strings.ToLower(status) {
	case "success":
		return enums.GatewayOutcomeSuccess
	case "failed", "abandoned", "reversed":
		return enums.GatewayOutcomeFailure
	default:
		return enums.GatewayOutcomePending
	}
}
