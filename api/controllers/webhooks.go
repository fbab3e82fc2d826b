package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/freshfoldhq/freshfold-backend/api/responses"
	"github.com/freshfoldhq/freshfold-backend/internal/reconciliation"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/metrics"
)

const maxWebhookBody = 1 << 20

// EventGuard fences duplicate deliveries of the same gateway event. The
// reconciliation layer is idempotent regardless; the guard just short-circuits
// fast replays without touching the database.
type EventGuard interface {
	EventGuardKey(gateway, reference string) string
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// GatewayWebhook verifies, parses, and applies one provider's webhook
// deliveries. Signature failures are rejected before any payload parsing.
func GatewayWebhook(client gateway.Client, recon reconciliation.Service, guard EventGuard, webhookMetrics *metrics.WebhookMetrics, guardTTL time.Duration, logg *logger.Logger) http.HandlerFunc {
	providerName := string(client.Provider())
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			webhookMetrics.IncRejected(providerName, "read_error")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		if err := client.VerifySignature(r.Header, body); err != nil {
			webhookMetrics.IncRejected(providerName, "signature")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		event, err := client.ParseWebhook(body)
		if err != nil {
			webhookMetrics.IncRejected(providerName, "malformed")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		guardKey := ""
		if guard != nil {
			guardKey = guard.EventGuardKey(providerName, fmt.Sprintf("%s:%s", event.Reference, event.Outcome))
			acquired, guardErr := guard.SetNX(ctx, guardKey, "1", guardTTL)
			if guardErr != nil {
				// Redis being down must not drop payments; fall through to
				// the idempotent reconciliation path.
				logg.Warn(logg.WithField(ctx, "reference", event.Reference), "webhook guard unavailable")
				guardKey = ""
			} else if !acquired {
				webhookMetrics.IncReceived(providerName, "replay")
				responses.WriteSuccess(w, map[string]bool{"received": true})
				return
			}
		}

		if err := recon.HandleEvent(ctx, event); err != nil {
			if guardKey != "" {
				// Release the fence so the provider's redelivery can retry.
				if delErr := guard.Del(ctx, guardKey); delErr != nil {
					logg.Error(ctx, "release webhook guard", delErr)
				}
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		webhookMetrics.IncReceived(providerName, string(event.Outcome))
		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
