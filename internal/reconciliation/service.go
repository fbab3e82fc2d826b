package reconciliation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/internal/orders"
	"github.com/freshfoldhq/freshfold-backend/internal/payments"
	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service reconciles gateway outcomes against local payment state. Webhook
// delivery and manual verification both land here so replays and races
// resolve to the same result.
type Service interface {
	// HandleEvent applies a normalized gateway event. A nil error means the
	// event was absorbed and the gateway should not redeliver it.
	HandleEvent(ctx context.Context, event *gateway.Event) error
	// VerifyPayment pulls the authoritative transaction state from the
	// gateway and applies it, for when a webhook was missed.
	VerifyPayment(ctx context.Context, reference string, actor types.Actor) (*models.Payment, error)
}

type service struct {
	payments     payments.Service
	paymentsRepo payments.Repository
	orders       orders.Service
	tx           txRunner
	gateways     map[enums.GatewayProvider]gateway.Client
	logg         *logger.Logger
}

// ServiceParams wires the reconciliation service dependencies.
type ServiceParams struct {
	Payments     payments.Service
	PaymentsRepo payments.Repository
	Orders       orders.Service
	Tx           txRunner
	Gateways     map[enums.GatewayProvider]gateway.Client
	Logger       *logger.Logger
}

// NewService builds the reconciliation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if params.PaymentsRepo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		payments:     params.Payments,
		paymentsRepo: params.PaymentsRepo,
		orders:       params.Orders,
		tx:           params.Tx,
		gateways:     params.Gateways,
		logg:         params.Logger,
	}, nil
}

func (s *service) HandleEvent(ctx context.Context, event *gateway.Event) error {
	if event == nil || event.Reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "gateway event missing reference")
	}
	_, err := s.apply(ctx, event)
	return err
}

func (s *service) VerifyPayment(ctx context.Context, reference string, actor types.Actor) (*models.Payment, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	payment, err := s.paymentsRepo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment with that reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has no gateway attached")
	}
	client, ok := s.gateways[*payment.Gateway]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway client not configured")
	}

	if err := authorizeVerify(payment, actor); err != nil {
		return nil, err
	}

	event, err := client.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, event)
}

// apply is the single convergence point for gateway outcomes. It locks the
// payment by reference, decides whether the outcome is new information, and
// steps the payment through its lifecycle as the system actor.
func (s *service) apply(ctx context.Context, event *gateway.Event) (*models.Payment, error) {
	actor := types.SystemActor()
	var payment *models.Payment
	var completed bool

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.paymentsRepo.WithTx(tx)
		locked, err := repo.FindByReferenceForUpdate(ctx, event.Reference)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// A reference we never issued. Acknowledge so the gateway
				// stops redelivering; the raw event is in the gateway's logs.
				s.logg.Warn(s.logg.WithField(ctx, "reference", event.Reference),
					"gateway event for unknown reference")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment by reference")
		}
		payment = locked

		switch event.Outcome {
		case enums.GatewayOutcomePending:
			// Non-final gateway status. Nothing to reconcile yet.
			return nil
		case enums.GatewayOutcomeSuccess:
			if locked.Status == enums.PaymentStatusCompleted {
				return nil
			}
			if locked.Status == enums.PaymentStatusCancelled {
				s.logg.Warn(s.logg.WithPaymentID(ctx, locked.ID.String()),
					"gateway success for cancelled payment, ignoring")
				return nil
			}
			if err := s.recordGatewayDetails(ctx, repo, locked, event); err != nil {
				return err
			}
			// A failed payment has no edge to completed; walk the retry edge
			// back through pending so the transition table stays closed.
			if locked.Status == enums.PaymentStatusFailed {
				if err := s.payments.SetStatusInTx(ctx, tx, locked, enums.PaymentStatusPending, actor, nil); err != nil {
					return err
				}
			}
			if locked.Status == enums.PaymentStatusPending {
				if err := s.payments.SetStatusInTx(ctx, tx, locked, enums.PaymentStatusProcessing, actor, nil); err != nil {
					return err
				}
			}
			if err := s.payments.SetStatusInTx(ctx, tx, locked, enums.PaymentStatusCompleted, actor, nil); err != nil {
				return err
			}
			completed = true
			return nil
		case enums.GatewayOutcomeFailure:
			if locked.Status == enums.PaymentStatusFailed ||
				locked.Status == enums.PaymentStatusCancelled ||
				locked.Status == enums.PaymentStatusCompleted {
				return nil
			}
			if err := s.recordGatewayDetails(ctx, repo, locked, event); err != nil {
				return err
			}
			if locked.Status == enums.PaymentStatusPending {
				if err := s.payments.SetStatusInTx(ctx, tx, locked, enums.PaymentStatusProcessing, actor, nil); err != nil {
					return err
				}
			}
			notes := failureNotes(event)
			return s.payments.SetStatusInTx(ctx, tx, locked, enums.PaymentStatusFailed, actor, notes)
		default:
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown gateway outcome")
		}
	})
	if err != nil {
		return nil, err
	}

	if completed && payment != nil {
		s.confirmOrderIfPending(ctx, payment)
	}
	return payment, nil
}

// recordGatewayDetails stores the gateway's transaction metadata on the
// payment before any status change, so history readers see them together.
func (s *service) recordGatewayDetails(ctx context.Context, repo payments.Repository, payment *models.Payment, event *gateway.Event) error {
	updates := map[string]any{}
	if event.TransactionID != "" {
		updates["transaction_id"] = event.TransactionID
		txn := event.TransactionID
		payment.Transaction = &txn
	}
	if event.Channel != "" {
		updates["channel"] = event.Channel
		channel := event.Channel
		payment.Channel = &channel
	}
	if len(event.Raw) > 0 {
		updates["raw_response"] = event.Raw
		payment.RawResponse = event.Raw
	}
	if event.Outcome == enums.GatewayOutcomeFailure && event.Status != "" {
		updates["failure_reason"] = event.Status
		reason := event.Status
		payment.FailureReason = &reason
	}
	if len(updates) == 0 {
		return nil
	}
	if err := repo.Update(ctx, payment.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record gateway details")
	}
	return nil
}

// confirmOrderIfPending advances the order after a successful settlement.
// The payment is already committed; an order that moved on in the meantime
// is normal operation, not an error.
func (s *service) confirmOrderIfPending(ctx context.Context, payment *models.Payment) {
	actor := types.SystemActor()
	order, err := s.orders.Get(ctx, payment.OrderID, actor)
	if err != nil {
		s.logg.Error(s.logg.WithPaymentID(ctx, payment.ID.String()), "load order after payment completion", err)
		return
	}
	if order.Status != enums.OrderStatusPending {
		return
	}
	if _, err := s.orders.Transition(ctx, orders.TransitionInput{
		OrderID: order.ID,
		Target:  enums.OrderStatusConfirmed,
		Actor:   actor,
	}); err != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			s.logg.Info(logCtx, "order moved on before payment confirmation")
			return
		}
		s.logg.Error(logCtx, "confirm order after payment completion", err)
	}
}

func failureNotes(event *gateway.Event) *string {
	if event.Status == "" {
		return nil
	}
	notes := fmt.Sprintf("gateway reported %s", event.Status)
	return &notes
}

func authorizeVerify(payment *models.Payment, actor types.Actor) error {
	switch actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return nil
	case enums.ActorRoleCustomer:
		if payment.CustomerID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payment belongs to another customer")
		}
		return nil
	case enums.ActorRoleProvider:
		if payment.ProviderID == nil || *payment.ProviderID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "payment is not linked to this provider")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
}
