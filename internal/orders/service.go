package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/internal/payments"
	"github.com/freshfoldhq/freshfold-backend/internal/pricing"
	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/outbox"
	"github.com/freshfoldhq/freshfold-backend/pkg/outbox/payloads"
	"github.com/freshfoldhq/freshfold-backend/pkg/pagination"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// TrackingProjector appends a display step derived from a status change.
// Failures never block the triggering transition.
type TrackingProjector interface {
	Project(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

// LoyaltyAwarder credits points when an order first completes. At-most-once
// is the awarder's concern; the caller guarantees at most one invocation per
// committed transition.
type LoyaltyAwarder interface {
	AwardOrderCompleted(ctx context.Context, order *models.Order) error
}

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error)
	List(ctx context.Context, actor types.Actor, params pagination.Params, filters ListFilters) (*OrderList, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	// TransitionInTx applies a validated transition to an already-locked
	// order inside the caller's transaction. The caller must invoke
	// PostTransitionEffects after its transaction commits.
	TransitionInTx(ctx context.Context, tx *gorm.DB, order *models.Order, target enums.OrderStatus, actor types.Actor, notes *string) error
	PostTransitionEffects(ctx context.Context, order *models.Order, from, to enums.OrderStatus)
	AddGarment(ctx context.Context, input AddGarmentInput) (*models.ClothingItem, error)
	ConfirmGarment(ctx context.Context, input ConfirmGarmentInput) (*models.ClothingItem, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	payments payments.Creator
	pricing  *pricing.Calculator
	tracking TrackingProjector
	loyalty  LoyaltyAwarder
	logg     *logger.Logger
}

// ServiceParams wires the order service dependencies.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Payments   payments.Creator
	Pricing    *pricing.Calculator
	Tracking   TrackingProjector
	Loyalty    LoyaltyAwarder
	Logger     *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment creator required")
	}
	if params.Pricing == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repository,
		tx:       params.Tx,
		outbox:   params.Outbox,
		payments: params.Payments,
		pricing:  params.Pricing,
		tracking: params.Tracking,
		loyalty:  params.Loyalty,
		logg:     params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	totals, err := s.pricing.ComputeTotals(pricingInputFrom(input))
	if err != nil {
		return nil, err
	}

	garmentCount := 0
	for _, item := range input.Items {
		garmentCount += len(item.Garments)
	}

	result := &CreateOrderResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order := &models.Order{
			CustomerID:   input.CustomerID,
			Status:       enums.OrderStatusPending,
			Urgent:       input.Urgent,
			PickupAddr:   input.PickupAddr,
			DeliveryAddr: input.DeliveryAddr,
			PickupDate:   input.PickupDate,
			DeliveryDate: input.DeliveryDate,
			Subtotal:     totals.Subtotal,
			Tax:          totals.Tax,
			TaxOverride:  input.Tax != nil,
			DeliveryFee:  totals.DeliveryFee,
			Discount:     totals.Discount,
			Total:        totals.Total,
			GarmentCount: garmentCount,
			Notes:        input.Notes,
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		for i, item := range input.Items {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				Position:  i,
				Service:   item.Service,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				LineTotal: totals.LineTotals[i],
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		running := 0
		for i, item := range input.Items {
			for _, garment := range item.Garments {
				price := items[i].UnitPrice
				if garment.UnitPrice != nil {
					price = *garment.UnitPrice
				}
				row := &models.ClothingItem{
					OrderID:      order.ID,
					OrderItemID:  items[i].ID,
					ItemCode:     pricing.GenerateItemID(order.OrderNumber, running),
					Description:  garment.Description,
					Service:      items[i].Service,
					UnitPrice:    price,
					Instructions: garment.Instructions,
				}
				if err := repo.CreateGarment(ctx, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create garment")
				}
				running++
			}
		}

		seed := &models.OrderStatusEvent{
			OrderID:   order.ID,
			Status:    enums.OrderStatusPending,
			ActorID:   input.CustomerID,
			ActorRole: enums.ActorRoleCustomer,
		}
		if err := repo.AppendStatusEvent(ctx, seed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append seed status")
		}

		payment, err := s.payments.CreateInTx(ctx, tx, payments.CreateInput{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Amount:     order.Total,
			Method:     input.PaymentMethod,
			Actor:      types.Actor{ID: input.CustomerID, Role: enums.ActorRoleCustomer},
		})
		if err != nil {
			return err
		}

		result.Order = order
		result.Payment = payment

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(types.Actor{ID: input.CustomerID, Role: enums.ActorRoleCustomer}),
			Data: payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				CustomerID:  order.CustomerID,
				PaymentID:   payment.ID,
				Method:      payment.Method,
				Total:       order.Total,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.projectTracking(ctx, result.Order.ID, enums.OrderStatusPending)
	return result, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := authorizeView(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor types.Actor, params pagination.Params, filters ListFilters) (*OrderList, error) {
	list, err := s.repo.List(ctx, actor, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var order *models.Order
	var from enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		from = locked.Status
		if err := s.TransitionInTx(ctx, tx, locked, input.Target, input.Actor, input.Notes); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.PostTransitionEffects(ctx, order, from, input.Target)
	return order, nil
}

func (s *service) TransitionInTx(ctx context.Context, tx *gorm.DB, order *models.Order, target enums.OrderStatus, actor types.Actor, notes *string) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if err := authorizeTransition(order, target, actor); err != nil {
		return err
	}
	if !CanTransition(order.Status, target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order transition %s -> %s not allowed", order.Status, target)).
			WithDetails(map[string]string{
				"from": string(order.Status),
				"to":   string(target),
			})
	}

	repo := s.repo.WithTx(tx)
	from := order.Status
	now := time.Now()

	event := &models.OrderStatusEvent{
		OrderID:   order.ID,
		Status:    target,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Notes:     notes,
	}
	if err := repo.AppendStatusEvent(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
	}

	updates := map[string]any{"status": target}
	switch target {
	case enums.OrderStatusCompleted:
		updates["completed_at"] = now
		order.CompletedAt = &now
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = now
		order.CancelledAt = &now
	}
	if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = target

	return s.emitTransitionEvents(ctx, tx, order, from, target, actor, notes)
}

func (s *service) emitTransitionEvents(ctx context.Context, tx *gorm.DB, order *models.Order, from, target enums.OrderStatus, actor types.Actor, notes *string) error {
	noteText := ""
	if notes != nil {
		noteText = *notes
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         actorRef(actor),
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			ProviderID: order.ProviderID,
			From:       from,
			To:         target,
			Notes:      noteText,
		},
	}); err != nil {
		return err
	}

	switch target {
	case enums.OrderStatusCompleted:
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.OrderCompletedEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				ProviderID:  order.ProviderID,
				Total:       order.Total,
				CompletedAt: valueOrNow(order.CompletedAt),
			},
		}); err != nil {
			return err
		}
	case enums.OrderStatusCancelled:
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         actorRef(actor),
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				From:        from,
				CancelledAt: valueOrNow(order.CancelledAt),
				Reason:      noteText,
			},
		}); err != nil {
			return err
		}
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Version:       1,
		Actor:         actorRef(actor),
		Data: payloads.NotificationRequestedEvent{
			UserID:  order.CustomerID,
			OrderID: order.ID,
			Type:    enums.NotificationOrderStatusChanged,
			Title:   "Order update",
			Message: fmt.Sprintf("Order #%d is now %s", order.OrderNumber, target),
		},
	})
}

// PostTransitionEffects runs the fire-and-forget side effects of a committed
// transition. Failures are logged and swallowed; the state change stands.
func (s *service) PostTransitionEffects(ctx context.Context, order *models.Order, from, to enums.OrderStatus) {
	s.projectTracking(ctx, order.ID, to)

	if to == enums.OrderStatusCompleted && from != enums.OrderStatusCompleted && s.loyalty != nil {
		if err := s.loyalty.AwardOrderCompleted(ctx, order); err != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, order.ID.String()), "loyalty award failed", err)
		}
	}
}

func (s *service) projectTracking(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) {
	if s.tracking == nil {
		return
	}
	if err := s.tracking.Project(ctx, orderID, status); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()), "tracking projection failed", err)
	}
}

func (s *service) AddGarment(ctx context.Context, input AddGarmentInput) (*models.ClothingItem, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "garment description required")
	}

	var garment *models.ClothingItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if IsTerminal(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer editable")
		}
		if err := authorizeMutation(order, input.Actor); err != nil {
			return err
		}

		item, err := repo.FindItemByPosition(ctx, order.ID, input.ItemPosition)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
		}

		count, err := repo.CountGarments(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count garments")
		}

		garment = &models.ClothingItem{
			OrderID:      order.ID,
			OrderItemID:  item.ID,
			ItemCode:     pricing.GenerateItemID(order.OrderNumber, int(count)),
			Description:  input.Description,
			Service:      item.Service,
			UnitPrice:    item.UnitPrice,
			Instructions: input.Instructions,
		}
		if err := repo.CreateGarment(ctx, garment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create garment")
		}

		return s.recomputeTotalsTx(ctx, repo, order)
	})
	if err != nil {
		return nil, err
	}
	return garment, nil
}

// recomputeTotalsTx refreshes line totals and the order money fields from
// the current items. Delivery fee and discount are taken as stored; tax is
// re-derived from the new subtotal unless it was supplied explicitly at
// creation, in which case the stored amount stands.
func (s *service) recomputeTotalsTx(ctx context.Context, repo Repository, order *models.Order) error {
	items, err := repo.FindItemsWithGarments(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order items")
	}

	pricingItems := make([]pricing.LineItem, 0, len(items))
	garmentCount := 0
	for _, item := range items {
		prices := make([]decimal.Decimal, 0, len(item.Garments))
		for _, g := range item.Garments {
			prices = append(prices, g.UnitPrice)
		}
		garmentCount += len(item.Garments)
		pricingItems = append(pricingItems, pricing.LineItem{
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			GarmentPrices: prices,
		})
	}

	fee := order.DeliveryFee
	var tax *decimal.Decimal
	if order.TaxOverride {
		stored := order.Tax
		tax = &stored
	}
	totals, err := s.pricing.ComputeTotals(pricing.TotalsInput{
		Items:       pricingItems,
		Tax:         tax,
		DeliveryFee: &fee,
		Discount:    order.Discount,
		Urgent:      order.Urgent,
	})
	if err != nil {
		return err
	}

	for i, item := range items {
		if !item.LineTotal.Equal(totals.LineTotals[i]) {
			if err := repo.UpdateItem(ctx, item.ID, map[string]any{"line_total": totals.LineTotals[i]}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line total")
			}
		}
	}

	if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
		"subtotal":      totals.Subtotal,
		"tax":           totals.Tax,
		"total":         totals.Total,
		"garment_count": garmentCount,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order totals")
	}

	order.Subtotal = totals.Subtotal
	order.Tax = totals.Tax
	order.Total = totals.Total
	order.GarmentCount = garmentCount
	return nil
}

func (s *service) ConfirmGarment(ctx context.Context, input ConfirmGarmentInput) (*models.ClothingItem, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ItemCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code required")
	}

	var garment *models.ClothingItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// Receipt attestation is a provider action on a bound order.
		if !input.Actor.IsAdmin() {
			if input.Actor.Role != enums.ActorRoleProvider {
				return pkgerrors.New(pkgerrors.CodeForbidden, "only the provider can confirm garments")
			}
			if order.ProviderID == nil || *order.ProviderID != input.Actor.ID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this provider")
			}
		}

		garment, err = repo.FindGarmentByCode(ctx, order.ID, input.ItemCode)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "garment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load garment")
		}
		if garment.Confirmed == input.Confirmed {
			return nil
		}

		updates := map[string]any{"confirmed": input.Confirmed}
		if input.Confirmed {
			now := time.Now()
			updates["confirmed_at"] = now
			updates["confirmed_by"] = input.Actor.ID
			garment.ConfirmedAt = &now
			actorID := input.Actor.ID
			garment.ConfirmedBy = &actorID
		} else {
			updates["confirmed_at"] = nil
			updates["confirmed_by"] = nil
			garment.ConfirmedAt = nil
			garment.ConfirmedBy = nil
		}
		garment.Confirmed = input.Confirmed
		if err := repo.UpdateGarment(ctx, garment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update garment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return garment, nil
}

func authorizeTransition(order *models.Order, target enums.OrderStatus, actor types.Actor) error {
	switch actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return nil
	case enums.ActorRoleCustomer:
		if order.CustomerID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
		if target != enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeForbidden, "customers may only cancel their orders")
		}
		return nil
	case enums.ActorRoleProvider:
		if order.ProviderID == nil || *order.ProviderID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this provider")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
}

func authorizeMutation(order *models.Order, actor types.Actor) error {
	switch actor.Role {
	case enums.ActorRoleAdmin, enums.ActorRoleSystem:
		return nil
	case enums.ActorRoleCustomer:
		if order.CustomerID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}
		return nil
	case enums.ActorRoleProvider:
		if order.ProviderID == nil || *order.ProviderID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this provider")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
}

func authorizeView(order *models.Order, actor types.Actor) error {
	return authorizeMutation(order, actor)
}

func pricingInputFrom(input CreateOrderInput) pricing.TotalsInput {
	items := make([]pricing.LineItem, 0, len(input.Items))
	for _, item := range input.Items {
		prices := make([]decimal.Decimal, 0, len(item.Garments))
		for _, garment := range item.Garments {
			if garment.UnitPrice != nil {
				prices = append(prices, *garment.UnitPrice)
			} else {
				prices = append(prices, item.UnitPrice)
			}
		}
		items = append(items, pricing.LineItem{
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			GarmentPrices: prices,
		})
	}
	return pricing.TotalsInput{
		Items:       items,
		Tax:         input.Tax,
		DeliveryFee: input.DeliveryFee,
		Discount:    input.Discount,
		Urgent:      input.Urgent,
	}
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
