package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/freshfoldhq/freshfold-backend/internal/assignment"
	"github.com/freshfoldhq/freshfold-backend/internal/notifications"
	"github.com/freshfoldhq/freshfold-backend/internal/orders"
	"github.com/freshfoldhq/freshfold-backend/internal/payments"
	"github.com/freshfoldhq/freshfold-backend/internal/reconciliation"
	"github.com/freshfoldhq/freshfold-backend/internal/tracking"
	"github.com/freshfoldhq/freshfold-backend/pkg/config"
	"github.com/freshfoldhq/freshfold-backend/pkg/db/models"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	pkgerrors "github.com/freshfoldhq/freshfold-backend/pkg/errors"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/metrics"
	"github.com/freshfoldhq/freshfold-backend/pkg/pagination"
	"github.com/freshfoldhq/freshfold-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubOrdersService struct{}

func (stubOrdersService) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.CreateOrderResult, error) {
	panic("not used")
}

func (stubOrdersService) Get(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	return &models.Order{ID: orderID, CustomerID: actor.ID, Status: enums.OrderStatusPending}, nil
}

func (stubOrdersService) List(ctx context.Context, actor types.Actor, params pagination.Params, filters orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

func (stubOrdersService) Transition(ctx context.Context, input orders.TransitionInput) (*models.Order, error) {
	panic("not used")
}

func (stubOrdersService) TransitionInTx(ctx context.Context, tx *gorm.DB, order *models.Order, target enums.OrderStatus, actor types.Actor, notes *string) error {
	panic("not used")
}

func (stubOrdersService) PostTransitionEffects(ctx context.Context, order *models.Order, from, to enums.OrderStatus) {
}

func (stubOrdersService) AddGarment(ctx context.Context, input orders.AddGarmentInput) (*models.ClothingItem, error) {
	panic("not used")
}

func (stubOrdersService) ConfirmGarment(ctx context.Context, input orders.ConfirmGarmentInput) (*models.ClothingItem, error) {
	panic("not used")
}

type stubPaymentsService struct{}

func (stubPaymentsService) CreateInTx(ctx context.Context, tx *gorm.DB, input payments.CreateInput) (*models.Payment, error) {
	panic("not used")
}

func (stubPaymentsService) Get(ctx context.Context, paymentID uuid.UUID, actor types.Actor) (*models.Payment, error) {
	return &models.Payment{ID: paymentID, CustomerID: actor.ID, Status: enums.PaymentStatusPending}, nil
}

func (stubPaymentsService) SetStatus(ctx context.Context, input payments.SetStatusInput) (*models.Payment, error) {
	panic("not used")
}

func (stubPaymentsService) SetStatusInTx(ctx context.Context, tx *gorm.DB, payment *models.Payment, target enums.PaymentStatus, actor types.Actor, notes *string) error {
	panic("not used")
}

func (stubPaymentsService) Refund(ctx context.Context, input payments.RefundInput) (*models.Payment, error) {
	panic("not used")
}

func (stubPaymentsService) Initialize(ctx context.Context, input payments.InitializeInput) (*payments.InitializeResult, error) {
	panic("not used")
}

type stubReconService struct {
	events []*gateway.Event
}

func (s *stubReconService) HandleEvent(ctx context.Context, event *gateway.Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *stubReconService) VerifyPayment(ctx context.Context, reference string, actor types.Actor) (*models.Payment, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment with that reference")
}

type stubAssignmentService struct{}

func (stubAssignmentService) SelfAssign(ctx context.Context, orderID uuid.UUID, actor types.Actor) (*models.Order, error) {
	if actor.Role != enums.ActorRoleProvider {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only providers can self-assign")
	}
	return &models.Order{ID: orderID, Status: enums.OrderStatusAssigned}, nil
}

func (stubAssignmentService) AdminAssign(ctx context.Context, input assignment.AdminAssignInput) (*models.Order, error) {
	if !input.Actor.IsAdmin() && !input.Actor.IsSystem() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can assign providers")
	}
	return &models.Order{ID: input.OrderID, Status: enums.OrderStatusAssigned}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubLoyaltyService struct{}

func (stubLoyaltyService) AwardOrderCompleted(ctx context.Context, order *models.Order) error {
	return nil
}

func (stubLoyaltyService) Balance(ctx context.Context, customerID uuid.UUID) (int, error) {
	return 42, nil
}

type stubTrackingRepo struct{}

func (stubTrackingRepo) Create(ctx context.Context, step *models.TrackingStep) error { return nil }

func (stubTrackingRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.TrackingStep, error) {
	return nil, nil
}

// fakeGatewayClient accepts every delivery and reports a fixed event.
type fakeGatewayClient struct {
	provider enums.GatewayProvider
	event    *gateway.Event
	sigErr   error
}

func (f *fakeGatewayClient) Provider() enums.GatewayProvider { return f.provider }

func (f *fakeGatewayClient) VerifySignature(header http.Header, body []byte) error { return f.sigErr }

func (f *fakeGatewayClient) ParseWebhook(body []byte) (*gateway.Event, error) { return f.event, nil }

func (f *fakeGatewayClient) Verify(ctx context.Context, reference string) (*gateway.Event, error) {
	return f.event, nil
}

func (f *fakeGatewayClient) Initialize(ctx context.Context, input gateway.InitializeInput) (*gateway.InitResult, error) {
	return &gateway.InitResult{Reference: input.Reference}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

type routerOverrides struct {
	recon    reconciliation.Service
	gateways map[enums.GatewayProvider]gateway.Client
}

func newTestRouter(overrides routerOverrides) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: zerolog.Disabled, Output: io.Discard})
	recon := overrides.recon
	if recon == nil {
		recon = &stubReconService{}
	}
	return NewRouter(RouterParams{
		Config:         testConfig(),
		Logger:         logg,
		DB:             stubPinger{},
		Orders:         stubOrdersService{},
		Payments:       stubPaymentsService{},
		Reconciliation: recon,
		Assignment:     stubAssignmentService{},
		Notifications:  stubNotificationsService{},
		Loyalty:        stubLoyaltyService{},
		Tracking:       tracking.NewProjector(stubTrackingRepo{}),
		Gateways:       overrides.gateways,
		WebhookMetrics: metrics.NewWebhookMetrics(nil),
	})
}

func withActor(req *http.Request, role enums.ActorRole) *http.Request {
	req.Header.Set("X-Actor-Id", uuid.NewString())
	req.Header.Set("X-Actor-Role", string(role))
	return req
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(routerOverrides{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAPIRequiresActorIdentity(t *testing.T) {
	router := newTestRouter(routerOverrides{})

	missing := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, missing)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity headers got %d", resp.Code)
	}

	badRole := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	badRole.Header.Set("X-Actor-Id", uuid.NewString())
	badRole.Header.Set("X-Actor-Role", "superuser")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, badRole)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown role got %d", resp.Code)
	}

	ok := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil), enums.ActorRoleCustomer)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, ok)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with identity got %d", resp.Code)
	}
}

func TestListOrdersRejectsUnknownStatusFilter(t *testing.T) {
	router := newTestRouter(routerOverrides{})
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=floating", nil), enums.ActorRoleCustomer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status got %d", resp.Code)
	}
}

func TestAdminAssignRejectsNonAdmin(t *testing.T) {
	router := newTestRouter(routerOverrides{})
	body := strings.NewReader(`{"provider_id":"` + uuid.NewString() + `"}`)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/"+uuid.NewString()+"/assign", body), enums.ActorRoleProvider)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}
}

func TestAdminAssignAcceptsAdmin(t *testing.T) {
	router := newTestRouter(routerOverrides{})
	body := strings.NewReader(`{"provider_id":"` + uuid.NewString() + `"}`)
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/"+uuid.NewString()+"/assign", body), enums.ActorRoleAdmin)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin assign got %d", resp.Code)
	}
}

func TestWebhookRouteBypassesActorIdentity(t *testing.T) {
	recon := &stubReconService{}
	router := newTestRouter(routerOverrides{
		recon: recon,
		gateways: map[enums.GatewayProvider]gateway.Client{
			enums.GatewayProviderPaystack: &fakeGatewayClient{
				provider: enums.GatewayProviderPaystack,
				event: &gateway.Event{
					Gateway:   enums.GatewayProviderPaystack,
					Reference: "ff-ref",
					Outcome:   enums.GatewayOutcomeSuccess,
				},
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for verified webhook got %d", resp.Code)
	}
	if len(recon.events) != 1 {
		t.Fatalf("expected 1 reconciled event got %d", len(recon.events))
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	recon := &stubReconService{}
	router := newTestRouter(routerOverrides{
		recon: recon,
		gateways: map[enums.GatewayProvider]gateway.Client{
			enums.GatewayProviderPaystack: &fakeGatewayClient{
				provider: enums.GatewayProviderPaystack,
				sigErr:   pkgerrors.New(pkgerrors.CodeUnverified, "signature mismatch"),
			},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unverified webhook got %d", resp.Code)
	}
	if len(recon.events) != 0 {
		t.Fatalf("unverified webhook must not reach reconciliation")
	}
}

func TestUnconfiguredGatewayHasNoWebhookRoute(t *testing.T) {
	router := newTestRouter(routerOverrides{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/momo", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound && resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected no route for unconfigured gateway got %d", resp.Code)
	}
}

func TestLoyaltyBalance(t *testing.T) {
	router := newTestRouter(routerOverrides{})
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/loyalty/balance", nil), enums.ActorRoleCustomer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "42") {
		t.Fatalf("expected balance in body got %s", resp.Body.String())
	}
}
