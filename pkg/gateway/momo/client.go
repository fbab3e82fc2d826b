package momo

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/freshfoldhq/freshfold-backend/pkg/config"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway"
)

// CallbackTokenHeader authenticates MoMo callback deliveries. MTN does not
// sign callback bodies, so the shared token configured on the API user is the
// only authenticity check available.
const CallbackTokenHeader = "x-callback-token"

type client struct {
	cfg  config.MoMoConfig
	http *resty.Client
}

// New builds an MTN MoMo collection client from config.
func New(cfg config.MoMoConfig) (gateway.Client, error) {
	if strings.TrimSpace(cfg.SubscriptionKey) == "" {
		return nil, fmt.Errorf("momo subscription key required")
	}
	if strings.TrimSpace(cfg.APIUser) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("momo api credentials required")
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Ocp-Apim-Subscription-Key", cfg.SubscriptionKey).
		SetHeader("X-Target-Environment", cfg.TargetEnv)
	return &client{cfg: cfg, http: httpClient}, nil
}

func (c *client) Provider() enums.GatewayProvider {
	return enums.GatewayProviderMoMo
}

func (c *client) VerifySignature(header http.Header, body []byte) error {
	provided := header.Get(CallbackTokenHeader)
	if provided == "" {
		return pkgerrors.New(pkgerrors.CodeUnverified, "missing momo callback token")
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(c.cfg.CallbackToken)) != 1 {
		return pkgerrors.New(pkgerrors.CodeUnverified, "momo callback token mismatch")
	}
	return nil
}

// requestToPayResource is the collection request-to-pay resource shape shared
// by callbacks and status polls.
type requestToPayResource struct {
	ExternalID             string `json:"externalId"`
	Status                 string `json:"status"`
	FinancialTransactionID string `json:"financialTransactionId"`
	Reason                 string `json:"reason"`
}

func (c *client) ParseWebhook(body []byte) (*gateway.Event, error) {
	var resource requestToPayResource
	if err := json.Unmarshal(body, &resource); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed momo callback body")
	}
	if resource.ExternalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "momo callback missing externalId")
	}
	return eventFromResource(resource, body), nil
}

func (c *client) Verify(ctx context.Context, reference string) (*gateway.Event, error) {
	token, err := c.collectionToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get("/collection/v1_0/requesttopay/" + reference)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "momo status request failed")
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "momo request-to-pay not found")
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("momo status returned %d", resp.StatusCode()))
	}

	var resource requestToPayResource
	if err := json.Unmarshal(resp.Body(), &resource); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode momo status response")
	}
	if resource.ExternalID == "" {
		resource.ExternalID = reference
	}
	return eventFromResource(resource, resp.Body()), nil
}

type requestToPayBody struct {
	Amount     string     `json:"amount"`
	Currency   string     `json:"currency"`
	ExternalID string     `json:"externalId"`
	Payer      payerParty `json:"payer"`
	PayerNote  string     `json:"payerMessage"`
	PayeeNote  string     `json:"payeeNote"`
}

type payerParty struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

func (c *client) Initialize(ctx context.Context, input gateway.InitializeInput) (*gateway.InitResult, error) {
	if strings.TrimSpace(input.PhoneNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "momo initialize requires payer phone number")
	}
	token, err := c.collectionToken(ctx)
	if err != nil {
		return nil, err
	}

	body := requestToPayBody{
		Amount:     input.Amount.StringFixed(2),
		Currency:   input.Currency,
		ExternalID: input.Reference,
		Payer: payerParty{
			PartyIDType: "MSISDN",
			PartyID:     input.PhoneNumber,
		},
		PayerNote: "FreshFold laundry order",
		PayeeNote: "FreshFold payment",
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-Reference-Id", input.Reference).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/collection/v1_0/requesttopay")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "momo request-to-pay failed")
	}
	if resp.StatusCode() != http.StatusAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("momo request-to-pay returned %d", resp.StatusCode()))
	}

	// MoMo is push-based: there is no redirect URL, the payer approves on
	// their handset. The reference doubles as the poll handle.
	return &gateway.InitResult{Reference: input.Reference}, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *client) collectionToken(ctx context.Context) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.APIUser, c.cfg.APIKey).
		Post("/collection/token/")
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "momo token request failed")
	}
	if resp.StatusCode() != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("momo token returned %d", resp.StatusCode()))
	}
	var parsed tokenResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode momo token response")
	}
	if parsed.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "momo token response missing access_token")
	}
	return parsed.AccessToken, nil
}

func eventFromResource(resource requestToPayResource, raw []byte) *gateway.Event {
	return &gateway.Event{
		Gateway:       enums.GatewayProviderMoMo,
		Reference:     resource.ExternalID,
		Outcome:       outcomeFromStatus(resource.Status),
		Status:        resource.Status,
		Channel:       "mobile_money",
		TransactionID: resource.FinancialTransactionID,
		Raw:           json.RawMessage(raw),
	}
}

func outcomeFromStatus(status string) enums.GatewayOutcome {
	switch strings.ToUpper(status) {
	case "SUCCESSFUL":
		return enums.GatewayOutcomeSuccess
	case "FAILED", "REJECTED", "TIMEOUT":
		return enums.GatewayOutcomeFailure
	default:
		return enums.GatewayOutcomePending
	}
}
