package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freshfoldhq/freshfold-backend/api/controllers"
	"github.com/freshfoldhq/freshfold-backend/api/middleware"
	"github.com/freshfoldhq/freshfold-backend/internal/assignment"
	"github.com/freshfoldhq/freshfold-backend/internal/loyalty"
	"github.com/freshfoldhq/freshfold-backend/internal/notifications"
	"github.com/freshfoldhq/freshfold-backend/internal/orders"
	"github.com/freshfoldhq/freshfold-backend/internal/payments"
	"github.com/freshfoldhq/freshfold-backend/internal/reconciliation"
	"github.com/freshfoldhq/freshfold-backend/internal/tracking"
	"github.com/freshfoldhq/freshfold-backend/pkg/config"
	"github.com/freshfoldhq/freshfold-backend/pkg/db"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/metrics"
	"github.com/freshfoldhq/freshfold-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	Orders         orders.Service
	Payments       payments.Service
	Reconciliation reconciliation.Service
	Assignment     assignment.Service
	Notifications  notifications.Service
	Loyalty        loyalty.Service
	Tracking       *tracking.Projector
	Gateways       map[enums.GatewayProvider]gateway.Client
	WebhookMetrics *metrics.WebhookMetrics
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	// A *redis.Client stored in an interface is non-nil even when the pointer
	// is; resolve the optional dependency once here.
	var redisPinger redis.Pinger
	var guard controllers.EventGuard
	if p.Redis != nil {
		redisPinger = p.Redis
		guard = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, redisPinger))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Webhooks authenticate by signature, not by actor identity, and sit
	// outside the idempotency-key machinery.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		guardTTL := cfg.Eventing.WebhookIdempotencyTTL
		if client, ok := p.Gateways[enums.GatewayProviderPaystack]; ok {
			r.Post("/paystack", controllers.GatewayWebhook(client, p.Reconciliation, guard, p.WebhookMetrics, guardTTL, logg))
		}
		if client, ok := p.Gateways[enums.GatewayProviderMoMo]; ok {
			r.Post("/momo", controllers.GatewayWebhook(client, p.Reconciliation, guard, p.WebhookMetrics, guardTTL, logg))
		}
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		if p.Redis != nil {
			r.Use(middleware.Idempotency(p.Redis, logg))
		}

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(p.Orders, logg))
			r.Get("/", controllers.ListOrders(p.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(p.Orders, logg))
			r.Post("/{orderID}/transition", controllers.TransitionOrder(p.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(p.Orders, logg))
			r.Post("/{orderID}/items/{itemPosition}/garments", controllers.AddGarment(p.Orders, logg))
			r.Post("/{orderID}/garments/{itemCode}/confirm", controllers.ConfirmGarment(p.Orders, logg))
			r.Get("/{orderID}/tracking", controllers.OrderTracking(p.Orders, p.Tracking, logg))
			r.Post("/{orderID}/assign", controllers.SelfAssignOrder(p.Assignment, logg))
			r.Post("/{orderID}/payments/initialize", controllers.InitializePayment(p.Payments, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/{paymentID}", controllers.GetPayment(p.Payments, logg))
			r.Post("/{paymentID}/status", controllers.SetPaymentStatus(p.Payments, logg))
			r.Post("/{paymentID}/refund", controllers.RefundPayment(p.Payments, logg))
			r.Post("/verify", controllers.VerifyPayment(p.Reconciliation, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})

		r.Get("/loyalty/balance", controllers.LoyaltyBalance(p.Loyalty, logg))

		r.Route("/admin/orders", func(r chi.Router) {
			r.Post("/{orderID}/assign", controllers.AdminAssignOrder(p.Assignment, logg))
		})
	})

	return r
}
