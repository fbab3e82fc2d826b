package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/internal/orders"
	"github.com/freshfoldhq/freshfold-backend/internal/payments"
	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
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

// Service binds providers to orders. Self-assignment races are settled by
// the row lock: first provider in wins, the rest see a conflict.
type Service interface {
	SelfAssign(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error)
	AdminAssign(ctx context.Context, input AdminAssignInput) (*models.Order, error)
}

// AdminAssignInput reassigns an order to a provider, overriding any
// existing binding.
type AdminAssignInput struct {
	OrderID    uuid.UUID
	ProviderID uuid.UUID
	Actor      types.Actor
	Notes      *string
}

type service struct {
	ordersRepo   orders.Repository
	ordersSvc    orders.Service
	paymentsRepo payments.Repository
	tx           txRunner
	outbox       outboxPublisher
	logg         *logger.Logger
}

// ServiceParams wires the assignment service dependencies.
type ServiceParams struct {
	OrdersRepo   orders.Repository
	Orders       orders.Service
	PaymentsRepo payments.Repository
	Tx           txRunner
	Outbox       outboxPublisher
	Logger       *logger.Logger
}

// NewService builds the assignment service.
func NewService(params ServiceParams) (Service, error) {
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.PaymentsRepo == nil {
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
		ordersRepo:   params.OrdersRepo,
		ordersSvc:    params.Orders,
		paymentsRepo: params.PaymentsRepo,
		tx:           params.Tx,
		outbox:       params.Outbox,
		logg:         params.Logger,
	}, nil
}

func (s *service) SelfAssign(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	if actor.Role != enums.ActorRoleProvider {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only providers can self-assign")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var order *models.Order
	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if locked.Status != enums.OrderStatusPending && locked.Status != enums.OrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not open for assignment").
				WithDetails(map[string]string{
					"from": string(locked.Status),
					"to":   string(enums.OrderStatusAssigned),
				})
		}
		if locked.ProviderID != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "order is already assigned to a provider")
		}

		from = locked.Status
		if err := s.bindProvider(ctx, tx, locked, actor.ID, nil, false, actor); err != nil {
			return err
		}
		if err := s.advanceToAssigned(ctx, tx, locked, actor, nil); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.ordersSvc.PostTransitionEffects(ctx, order, from, enums.OrderStatusAssigned)
	return order, nil
}

func (s *service) AdminAssign(ctx context.Context, input AdminAssignInput) (*models.Order, error) {
	if !input.Actor.IsAdmin() && !input.Actor.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can assign providers")
	}
	if input.OrderID == uuid.Nil || input.ProviderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and provider id required")
	}

	var order *models.Order
	var from enums.OrderStatus
	var transitioned bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.lockOrder(ctx, tx, input.OrderID)
		if err != nil {
			return err
		}
		if orders.IsTerminal(locked.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state").
				WithDetails(map[string]string{
					"from": string(locked.Status),
					"to":   string(enums.OrderStatusAssigned),
				})
		}

		var prev *uuid.UUID
		if locked.ProviderID != nil {
			prevID := *locked.ProviderID
			prev = &prevID
		}
		from = locked.Status
		if err := s.bindProvider(ctx, tx, locked, input.ProviderID, prev, true, input.Actor); err != nil {
			return err
		}

		// Assignment only advances the status from an open state; a later
		// stage keeps its place and just changes hands.
		if locked.Status == enums.OrderStatusPending || locked.Status == enums.OrderStatusConfirmed {
			if err := s.advanceToAssigned(ctx, tx, locked, input.Actor, input.Notes); err != nil {
				return err
			}
			transitioned = true
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		s.ordersSvc.PostTransitionEffects(ctx, order, from, enums.OrderStatusAssigned)
	}
	return order, nil
}

// advanceToAssigned steps the order to assigned. A pending order passes
// through confirmed on the way; there is no pending -> assigned edge.
func (s *service) advanceToAssigned(ctx context.Context, tx *gorm.DB, order *models.Order, actor types.Actor, notes *string) error {
	if order.Status == enums.OrderStatusPending {
		if err := s.ordersSvc.TransitionInTx(ctx, tx, order, enums.OrderStatusConfirmed, actor, nil); err != nil {
			return err
		}
	}
	return s.ordersSvc.TransitionInTx(ctx, tx, order, enums.OrderStatusAssigned, actor, notes)
}

func (s *service) lockOrder(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	locked, err := s.ordersRepo.WithTx(tx).FindByIDForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return locked, nil
}

// bindProvider writes the provider onto the order and its live payment, and
// emits the assignment events.
func (s *service) bindProvider(ctx context.Context, tx *gorm.DB, order *models.Order, providerID uuid.UUID, prev *uuid.UUID, override bool, actor types.Actor) error {
	ordersRepo := s.ordersRepo.WithTx(tx)
	if err := ordersRepo.UpdateOrder(ctx, order.ID, map[string]any{"provider_id": providerID}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind provider to order")
	}
	boundID := providerID
	order.ProviderID = &boundID

	// Keep the settlement record pointed at whoever does the work.
	paymentsRepo := s.paymentsRepo.WithTx(tx)
	payment, err := paymentsRepo.FindLiveByOrder(ctx, order.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load live payment")
		}
	} else if err := paymentsRepo.Update(ctx, payment.ID, map[string]any{"provider_id": providerID}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind provider to payment")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderAssigned,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actor.ID, Role: string(actor.Role)},
		Data: payloads.OrderAssignedEvent{
			OrderID:       order.ID,
			CustomerID:    order.CustomerID,
			ProviderID:    providerID,
			PrevProvider:  prev,
			AdminOverride: override,
		},
	}); err != nil {
		return err
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actor.ID, Role: string(actor.Role)},
		Data: payloads.NotificationRequestedEvent{
			UserID:  order.CustomerID,
			OrderID: order.ID,
			Type:    enums.NotificationOrderAssigned,
			Title:   "Provider assigned",
			Message: fmt.Sprintf("Order #%d has been assigned to a provider", order.OrderNumber),
		},
	})
}
