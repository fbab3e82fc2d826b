package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/freshfoldhq/freshfold-backend/pkg/db"
	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/outbox"
	"github.com/freshfoldhq/freshfold-backend/pkg/outbox/payloads"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines payment lifecycle operations.
type Service interface {
	Creator
	Get(ctx context.Context, paymentID uuid.UUID, actor types.Actor) (*models.Payment, error)
	SetStatus(ctx context.Context, input SetStatusInput) (*models.Payment, error)
	// SetStatusInTx applies a validated status change to an already-locked
	// payment inside the caller's transaction. Both the manual path and the
	// gateway reconciliation path funnel through it.
	SetStatusInTx(ctx context.Context, tx *gorm.DB, payment *models.Payment, target enums.PaymentStatus, actor types.Actor, notes *string) error
	Refund(ctx context.Context, input RefundInput) (*models.Payment, error)
	Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	gateways map[enums.GatewayProvider]gateway.Client
	logg     *logger.Logger
}

// ServiceParams wires the payment service dependencies. Gateways may be
// empty in deployments that only settle cash.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Gateways   map[enums.GatewayProvider]gateway.Client
	Logger     *logger.Logger
}

// NewService builds the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repository,
		tx:       params.Tx,
		outbox:   params.Outbox,
		gateways: params.Gateways,
		logg:     params.Logger,
	}, nil
}

func (s *service) CreateInTx(ctx context.Context, tx *gorm.DB, input CreateInput) (*models.Payment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must not be negative")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	repo := s.repo.WithTx(tx)
	if _, err := repo.FindLiveByOrder(ctx, input.OrderID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has an active payment")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing payment")
	}

	payment := &models.Payment{
		OrderID:    input.OrderID,
		CustomerID: input.CustomerID,
		ProviderID: input.ProviderID,
		Amount:     input.Amount,
		Method:     input.Method,
		Status:     enums.PaymentStatusPending,
	}
	if _, err := repo.Create(ctx, payment); err != nil {
		// The partial unique index backstops the read-then-create race.
		if dbpkg.IsUniqueViolation(err, "idx_payments_one_live_per_order") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already has an active payment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}

	seed := &models.PaymentStatusEvent{
		PaymentID: payment.ID,
		Status:    enums.PaymentStatusPending,
		ActorID:   input.Actor.ID,
		ActorRole: input.Actor.Role,
	}
	if err := repo.AppendStatusEvent(ctx, seed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append seed payment status")
	}
	return payment, nil
}

func (s *service) Get(ctx context.Context, paymentID uuid.UUID, actor types.Actor) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) SetStatus(ctx context.Context, input SetStatusInput) (*models.Payment, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}

	var payment *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindByIDForUpdate(ctx, input.PaymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if err := authorizeStatusChange(locked, input.Target, input.Actor); err != nil {
			return err
		}
		if err := s.SetStatusInTx(ctx, tx, locked, input.Target, input.Actor, input.Notes); err != nil {
			return err
		}
		payment = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) SetStatusInTx(ctx context.Context, tx *gorm.DB, payment *models.Payment, target enums.PaymentStatus, actor types.Actor, notes *string) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment status")
	}
	if !CanTransition(payment.Status, target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment transition %s -> %s not allowed", payment.Status, target)).
			WithDetails(map[string]string{
				"from": string(payment.Status),
				"to":   string(target),
			})
	}

	repo := s.repo.WithTx(tx)
	event := &models.PaymentStatusEvent{
		PaymentID: payment.ID,
		Status:    target,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Notes:     notes,
	}
	if err := repo.AppendStatusEvent(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append payment history")
	}

	updates := map[string]any{"status": target}
	if target == enums.PaymentStatusCompleted {
		now := time.Now()
		updates["completed_at"] = now
		payment.CompletedAt = &now
		if payment.Transaction == nil || *payment.Transaction == "" {
			txnID := "txn-" + uuid.NewString()
			updates["transaction_id"] = txnID
			payment.Transaction = &txnID
		}
	}
	if err := repo.Update(ctx, payment.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
	}
	payment.Status = target

	return s.emitStatusEvents(ctx, tx, payment, target, actor, notes)
}

func (s *service) emitStatusEvents(ctx context.Context, tx *gorm.DB, payment *models.Payment, target enums.PaymentStatus, actor types.Actor, notes *string) error {
	switch target {
	case enums.PaymentStatusCompleted:
		transaction := ""
		if payment.Transaction != nil {
			transaction = *payment.Transaction
		}
		channel := ""
		if payment.Channel != nil {
			channel = *payment.Channel
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentCompleted,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.PaymentCompletedEvent{
				PaymentID:   payment.ID,
				OrderID:     payment.OrderID,
				CustomerID:  payment.CustomerID,
				Amount:      payment.Amount,
				Transaction: transaction,
				Channel:     channel,
				CompletedAt: valueOrNow(payment.CompletedAt),
			},
		}); err != nil {
			return err
		}
		paymentID := payment.ID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.NotificationRequestedEvent{
				UserID:    payment.CustomerID,
				OrderID:   payment.OrderID,
				PaymentID: &paymentID,
				Type:      enums.NotificationPaymentCompleted,
				Title:     "Payment received",
				Message:   fmt.Sprintf("Your payment of %s was received", payment.Amount.StringFixed(2)),
			},
		})
	case enums.PaymentStatusFailed:
		reason := ""
		if notes != nil {
			reason = *notes
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.PaymentFailedEvent{
				PaymentID:  payment.ID,
				OrderID:    payment.OrderID,
				CustomerID: payment.CustomerID,
				Reason:     reason,
			},
		}); err != nil {
			return err
		}
		paymentID := payment.ID
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.NotificationRequestedEvent{
				UserID:    payment.CustomerID,
				OrderID:   payment.OrderID,
				PaymentID: &paymentID,
				Type:      enums.NotificationPaymentFailed,
				Title:     "Payment failed",
				Message:   "Your payment could not be processed",
			},
		})
	}
	return nil
}

func (s *service) Refund(ctx context.Context, input RefundInput) (*models.Payment, error) {
	if input.PaymentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can refund payments")
	}

	var payment *models.Payment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindByIDForUpdate(ctx, input.PaymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		if input.Amount.GreaterThan(locked.Amount) {
			return pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds payment amount")
		}

		// A refund annotates the payment; status is deliberately untouched.
		now := time.Now()
		if err := repo.Update(ctx, locked.ID, map[string]any{
			"refund_amount": input.Amount,
			"refunded_at":   now,
			"refund_reason": input.Reason,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund")
		}
		amount := input.Amount
		locked.RefundAmount = &amount
		locked.RefundedAt = &now
		locked.RefundReason = &input.Reason
		payment = locked

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRefunded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   locked.ID,
			Version:       1,
			Actor:         actorRef(input.Actor),
			Data: payloads.PaymentRefundedEvent{
				PaymentID:  locked.ID,
				OrderID:    locked.OrderID,
				Amount:     input.Amount,
				Reason:     input.Reason,
				RefundedAt: now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *service) Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	client, ok := s.gateways[input.Gateway]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment gateway")
	}

	payment, err := s.repo.FindLiveByOrder(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active payment for order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if err := authorizePaymentAccess(payment, input.Actor); err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not awaiting a gateway charge")
	}

	reference := "ff-" + uuid.NewString()
	initResult, err := client.Initialize(ctx, gateway.InitializeInput{
		Reference:   reference,
		Amount:      payment.Amount,
		Currency:    "GHS",
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		CallbackURL: input.CallbackURL,
	})
	if err != nil {
		return nil, err
	}
	if initResult.Reference != "" {
		reference = initResult.Reference
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindByIDForUpdate(ctx, payment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		gatewayName := input.Gateway
		if err := repo.Update(ctx, locked.ID, map[string]any{
			"gateway":   gatewayName,
			"reference": reference,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store gateway reference")
		}
		locked.Gateway = &gatewayName
		locked.Reference = &reference
		if err := s.SetStatusInTx(ctx, tx, locked, enums.PaymentStatusProcessing, input.Actor, nil); err != nil {
			return err
		}
		payment = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &InitializeResult{
		Payment:          payment,
		Reference:        reference,
		AuthorizationURL: initResult.AuthorizationURL,
	}, nil
}

func authorizePaymentAccess(payment *models.Payment, actor types.Actor) error {
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

func authorizeStatusChange(payment *models.Payment, target enums.PaymentStatus, actor types.Actor) error {
	if err := authorizePaymentAccess(payment, actor); err != nil {
		return err
	}
	// Customers may only abandon their own pending payment; settling is a
	// provider/admin action.
	if actor.Role == enums.ActorRoleCustomer && target != enums.PaymentStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeForbidden, "customers may only cancel a payment")
	}
	return nil
}

func actorRef(actor types.Actor) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: actor.ID,
		Role:   string(actor.Role),
	}
}

func valueOrNow(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return time.Now()
}
