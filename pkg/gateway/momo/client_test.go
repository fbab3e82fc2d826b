package momo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freshfoldhq/freshfold-backend/pkg/config"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway"
	"github.com/shopspring/decimal"
)

func newTestClient(t *testing.T, baseURL string) gateway.Client {
	t.Helper()
	c, err := New(config.MoMoConfig{
		SubscriptionKey: "sub-key",
		APIUser:         "api-user",
		APIKey:          "api-key",
		CallbackToken:   "cb-token",
		BaseURL:         baseURL,
		TargetEnv:       "sandbox",
		Timeout:         5 * time.Second,
	})
	if err != nil {
		t.Fatalf("construct client: %v", err)
	}
	return c
}

func TestVerifySignatureMatchesCallbackToken(t *testing.T) {
	c := newTestClient(t, "https://sandbox.momodeveloper.mtn.com")

	header := http.Header{}
	header.Set(CallbackTokenHeader, "cb-token")
	if err := c.VerifySignature(header, nil); err != nil {
		t.Fatalf("expected token accepted, got %v", err)
	}

	header.Set(CallbackTokenHeader, "wrong")
	err := c.VerifySignature(header, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnverified {
		t.Fatalf("expected UNVERIFIED_EVENT, got %v", err)
	}
}

func TestParseWebhookNormalizesStatuses(t *testing.T) {
	c := newTestClient(t, "https://sandbox.momodeveloper.mtn.com")

	cases := []struct {
		status  string
		outcome enums.GatewayOutcome
	}{
		{"SUCCESSFUL", enums.GatewayOutcomeSuccess},
		{"FAILED", enums.GatewayOutcomeFailure},
		{"PENDING", enums.GatewayOutcomePending},
	}
	for _, tc := range cases {
		body := []byte(`{"externalId":"ff-ref-9","status":"` + tc.status + `","financialTransactionId":"tx-1"}`)
		event, err := c.ParseWebhook(body)
		if err != nil {
			t.Fatalf("parse webhook (%s): %v", tc.status, err)
		}
		if event.Outcome != tc.outcome {
			t.Errorf("status %s: outcome = %q, want %q", tc.status, event.Outcome, tc.outcome)
		}
		if event.Reference != "ff-ref-9" {
			t.Errorf("reference = %q", event.Reference)
		}
	}
}

func TestVerifyPollsRequestToPay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection/token/":
			_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":3600}`))
		case "/collection/v1_0/requesttopay/ff-ref-4":
			if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
				t.Errorf("missing bearer token, got %q", got)
			}
			if got := r.Header.Get("Ocp-Apim-Subscription-Key"); got != "sub-key" {
				t.Errorf("missing subscription key, got %q", got)
			}
			_, _ = w.Write([]byte(`{"externalId":"ff-ref-4","status":"SUCCESSFUL","financialTransactionId":"fin-7"}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	event, err := c.Verify(context.Background(), "ff-ref-4")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if event.Outcome != enums.GatewayOutcomeSuccess {
		t.Errorf("outcome = %q", event.Outcome)
	}
	if event.TransactionID != "fin-7" {
		t.Errorf("transaction id = %q", event.TransactionID)
	}
}

func TestInitializeRequiresPhoneNumber(t *testing.T) {
	c := newTestClient(t, "https://sandbox.momodeveloper.mtn.com")
	_, err := c.Initialize(context.Background(), gateway.InitializeInput{
		Reference: "ff-ref-5",
		Amount:    decimal.NewFromFloat(38.0),
		Currency:  "GHS",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestInitializeSubmitsRequestToPay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collection/token/":
			_, _ = w.Write([]byte(`{"access_token":"tok-2"}`))
		case "/collection/v1_0/requesttopay":
			if got := r.Header.Get("X-Reference-Id"); got != "ff-ref-6" {
				t.Errorf("reference header = %q", got)
			}
			w.WriteHeader(http.StatusAccepted)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	result, err := c.Initialize(context.Background(), gateway.InitializeInput{
		Reference:   "ff-ref-6",
		Amount:      decimal.NewFromFloat(38.0),
		Currency:    "GHS",
		PhoneNumber: "233501234567",
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if result.Reference != "ff-ref-6" {
		t.Errorf("reference = %q", result.Reference)
	}
}
