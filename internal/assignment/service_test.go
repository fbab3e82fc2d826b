package assignment

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/internal/orders"
	"github.com/freshfoldhq/freshfold-backend/internal/payments"
	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/outbox"
	"github.com/freshfoldhq/freshfold-backend/pkg/outbox/payloads"
	"github.com/freshfoldhq/freshfold-backend/pkg/pagination"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

type stubOrderRepo struct {
	order   *models.Order
	updates map[string]any
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderRepo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.updates == nil {
		s.updates = map[string]any{}
	}
	for k, v := range updates {
		s.updates[k] = v
	}
	return nil
}

func (s *stubOrderRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	panic("not used")
}
func (s *stubOrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	panic("not used")
}
func (s *stubOrderRepo) CreateGarment(ctx context.Context, garment *models.ClothingItem) error {
	panic("not used")
}
func (s *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	panic("not used")
}
func (s *stubOrderRepo) FindItemByPosition(ctx context.Context, orderID uuid.UUID, position int) (*models.OrderItem, error) {
	panic("not used")
}
func (s *stubOrderRepo) FindGarmentByCode(ctx context.Context, orderID uuid.UUID, itemCode string) (*models.ClothingItem, error) {
	panic("not used")
}
func (s *stubOrderRepo) FindItemsWithGarments(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	panic("not used")
}
func (s *stubOrderRepo) CountGarments(ctx context.Context, orderID uuid.UUID) (int64, error) {
	panic("not used")
}
func (s *stubOrderRepo) AppendStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error {
	panic("not used")
}
func (s *stubOrderRepo) UpdateItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	panic("not used")
}
func (s *stubOrderRepo) UpdateGarment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	panic("not used")
}
func (s *stubOrderRepo) List(ctx context.Context, actor types.Actor, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	panic("not used")
}

type stubPayRepo struct {
	payment *models.Payment
	updates map[string]any
}

func (s *stubPayRepo) WithTx(tx *gorm.DB) payments.Repository { return s }

func (s *stubPayRepo) FindLiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	if s.payment == nil || s.payment.OrderID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.payment, nil
}

func (s *stubPayRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.updates == nil {
		s.updates = map[string]any{}
	}
	for k, v := range updates {
		s.updates[k] = v
	}
	return nil
}

func (s *stubPayRepo) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	panic("not used")
}
func (s *stubPayRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	panic("not used")
}
func (s *stubPayRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	panic("not used")
}
func (s *stubPayRepo) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	panic("not used")
}
func (s *stubPayRepo) FindByReferenceForUpdate(ctx context.Context, reference string) (*models.Payment, error) {
	panic("not used")
}
func (s *stubPayRepo) AppendStatusEvent(ctx context.Context, event *models.PaymentStatusEvent) error {
	panic("not used")
}

// stubOrdersSvc records transition requests made inside the assignment flow.
type stubOrdersSvc struct {
	transitions []enums.OrderStatus
	effects     int
}

func (s *stubOrdersSvc) TransitionInTx(ctx context.Context, tx *gorm.DB, order *models.Order, target enums.OrderStatus, actor types.Actor, notes *string) error {
	if !orders.CanTransition(order.Status, target) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed")
	}
	s.transitions = append(s.transitions, target)
	order.Status = target
	return nil
}

func (s *stubOrdersSvc) PostTransitionEffects(ctx context.Context, order *models.Order, from, to enums.OrderStatus) {
	s.effects++
}

func (s *stubOrdersSvc) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.CreateOrderResult, error) {
	panic("not used")
}
func (s *stubOrdersSvc) Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	panic("not used")
}
func (s *stubOrdersSvc) List(ctx context.Context, actor types.Actor, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	panic("not used")
}
func (s *stubOrdersSvc) Transition(ctx context.Context, input orders.TransitionInput) (*models.Order, error) {
	panic("not used")
}
func (s *stubOrdersSvc) AddGarment(ctx context.Context, input orders.AddGarmentInput) (*models.ClothingItem, error) {
	panic("not used")
}
func (s *stubOrdersSvc) ConfirmGarment(ctx context.Context, input orders.ConfirmGarmentInput) (*models.ClothingItem, error) {
	panic("not used")
}

type captureOutbox struct {
	events []outbox.DomainEvent
}

func (c *captureOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureOutbox) find(eventType enums.OutboxEventType) *outbox.DomainEvent {
	for i := range c.events {
		if c.events[i].EventType == eventType {
			return &c.events[i]
		}
	}
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type assignFixture struct {
	svc       Service
	orderRepo *stubOrderRepo
	payRepo   *stubPayRepo
	ordersSvc *stubOrdersSvc
	outbox    *captureOutbox
}

func newAssignFixture(t *testing.T) *assignFixture {
	t.Helper()
	fixture := &assignFixture{
		orderRepo: &stubOrderRepo{},
		payRepo:   &stubPayRepo{},
		ordersSvc: &stubOrdersSvc{},
		outbox:    &captureOutbox{},
	}
	svc, err := NewService(ServiceParams{
		OrdersRepo:   fixture.orderRepo,
		Orders:       fixture.ordersSvc,
		PaymentsRepo: fixture.payRepo,
		Tx:           stubTx{},
		Outbox:       fixture.outbox,
		Logger:       logger.New(logger.Options{ServiceName: "assignment-test", Level: zerolog.Disabled, Output: io.Discard}),
	})
	require.NoError(t, err)
	fixture.svc = svc
	return fixture
}

func seedOpenOrder(fixture *assignFixture, status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: 1042,
		CustomerID:  uuid.New(),
		Status:      status,
	}
	fixture.orderRepo.order = order
	fixture.payRepo.payment = &models.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  enums.PaymentStatusPending,
	}
	return order
}

func providerActor() types.Actor {
	return types.Actor{ID: uuid.New(), Role: enums.ActorRoleProvider}
}

func TestSelfAssignBindsFirstProvider(t *testing.T) {
	fixture := newAssignFixture(t)
	order := seedOpenOrder(fixture, enums.OrderStatusConfirmed)
	actor := providerActor()

	result, err := fixture.svc.SelfAssign(context.Background(), order.ID, actor)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusAssigned, result.Status)
	require.NotNil(t, result.ProviderID)
	require.Equal(t, actor.ID, *result.ProviderID)

	require.Equal(t, actor.ID, fixture.orderRepo.updates["provider_id"])
	require.Equal(t, actor.ID, fixture.payRepo.updates["provider_id"], "the live payment follows the order")
	require.Equal(t, 1, fixture.ordersSvc.effects)

	assigned := fixture.outbox.find(enums.EventOrderAssigned)
	require.NotNil(t, assigned)
	payload := assigned.Data.(payloads.OrderAssignedEvent)
	require.Equal(t, actor.ID, payload.ProviderID)
	require.Nil(t, payload.PrevProvider)
	require.False(t, payload.AdminOverride)
	require.NotNil(t, fixture.outbox.find(enums.EventNotificationRequested))
}

func TestSelfAssignSecondProviderGetsConflict(t *testing.T) {
	fixture := newAssignFixture(t)
	order := seedOpenOrder(fixture, enums.OrderStatusConfirmed)

	_, err := fixture.svc.SelfAssign(context.Background(), order.ID, providerActor())
	require.NoError(t, err)

	_, err = fixture.svc.SelfAssign(context.Background(), order.ID, providerActor())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	require.Len(t, fixture.ordersSvc.transitions, 1)
}

func TestSelfAssignRequiresProviderRole(t *testing.T) {
	fixture := newAssignFixture(t)
	order := seedOpenOrder(fixture, enums.OrderStatusConfirmed)

	_, err := fixture.svc.SelfAssign(context.Background(), order.ID, types.Actor{ID: uuid.New(), Role: enums.ActorRoleCustomer})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestSelfAssignRejectedOnceWorkStarted(t *testing.T) {
	fixture := newAssignFixture(t)
	order := seedOpenOrder(fixture, enums.OrderStatusInProgress)
	order.ProviderID = nil

	_, err := fixture.svc.SelfAssign(context.Background(), order.ID, providerActor())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, string(enums.OrderStatusInProgress), details["from"])
	require.Equal(t, string(enums.OrderStatusAssigned), details["to"])
}

func TestSelfAssignUnknownOrder(t *testing.T) {
	fixture := newAssignFixture(t)
	seedOpenOrder(fixture, enums.OrderStatusConfirmed)

	_, err := fixture.svc.SelfAssign(context.Background(), uuid.New(), providerActor())
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAdminAssignOverrideRecordsPreviousProvider(t *testing.T) {
	fixture := newAssignFixture(t)
	order := seedOpenOrder(fixture, enums.OrderStatusInProgress)
	prevProvider := uuid.New()
	order.ProviderID = &prevProvider
	newProvider := uuid.New()

	result, err := fixture.svc.AdminAssign(context.Background(), AdminAssignInput{
		OrderID:    order.ID,
		ProviderID: newProvider,
		Actor:      types.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin},
	})
	require.NoError(t, err)

	// Past the open stages the order keeps its place and just changes hands.
	require.Equal(t, enums.OrderStatusInProgress, result.Status)
	require.Empty(t, fixture.ordersSvc.transitions)
	require.Equal(t, 0, fixture.ordersSvc.effects)
	require.Equal(t, newProvider, *result.ProviderID)
	require.Equal(t, newProvider, fixture.payRepo.updates["provider_id"])

	assigned := fixture.outbox.find(enums.EventOrderAssigned)
	require.NotNil(t, assigned)
	payload := assigned.Data.(payloads.OrderAssignedEvent)
	require.True(t, payload.AdminOverride)
	require.NotNil(t, payload.PrevProvider)
	require.Equal(t, prevProvider, *payload.PrevProvider)
}

func TestAdminAssignAdvancesOpenOrder(t *testing.T) {
	fixture := newAssignFixture(t)
	order := seedOpenOrder(fixture, enums.OrderStatusPending)

	result, err := fixture.svc.AdminAssign(context.Background(), AdminAssignInput{
		OrderID:    order.ID,
		ProviderID: uuid.New(),
		Actor:      types.SystemActor(),
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusAssigned, result.Status)
	// No pending -> assigned edge exists, so a pending order is confirmed
	// on the way.
	require.Equal(t, []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusAssigned}, fixture.ordersSvc.transitions)
	require.Equal(t, 1, fixture.ordersSvc.effects)
}

func TestSelfAssignFromPendingStepsThroughConfirmed(t *testing.T) {
	fixture := newAssignFixture(t)
	order := seedOpenOrder(fixture, enums.OrderStatusPending)

	result, err := fixture.svc.SelfAssign(context.Background(), order.ID, providerActor())
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusAssigned, result.Status)
	require.Equal(t, []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusAssigned}, fixture.ordersSvc.transitions)
}

func TestAdminAssignRejectedOnTerminalOrder(t *testing.T) {
	fixture := newAssignFixture(t)
	order := seedOpenOrder(fixture, enums.OrderStatusCancelled)

	_, err := fixture.svc.AdminAssign(context.Background(), AdminAssignInput{
		OrderID:    order.ID,
		ProviderID: uuid.New(),
		Actor:      types.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin},
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestAdminAssignRequiresAdminRole(t *testing.T) {
	fixture := newAssignFixture(t)
	order := seedOpenOrder(fixture, enums.OrderStatusPending)

	_, err := fixture.svc.AdminAssign(context.Background(), AdminAssignInput{
		OrderID:    order.ID,
		ProviderID: uuid.New(),
		Actor:      providerActor(),
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}
