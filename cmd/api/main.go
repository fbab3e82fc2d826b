package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/freshfoldhq/freshfold-backend/api/routes"
	"github.com/freshfoldhq/freshfold-backend/internal/assignment"
	"github.com/freshfoldhq/freshfold-backend/internal/loyalty"
	"github.com/freshfoldhq/freshfold-backend/internal/notifications"
	"github.com/freshfoldhq/freshfold-backend/internal/orders"
	"github.com/freshfoldhq/freshfold-backend/internal/payments"
	"github.com/freshfoldhq/freshfold-backend/internal/pricing"
	"github.com/freshfoldhq/freshfold-backend/internal/reconciliation"
	"github.com/freshfoldhq/freshfold-backend/internal/tracking"
	"github.com/freshfoldhq/freshfold-backend/pkg/config"
	"github.com/freshfoldhq/freshfold-backend/pkg/db"
	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway/momo"
	"github.com/freshfoldhq/freshfold-backend/pkg/gateway/paystack"
	"github.com/freshfoldhq/freshfold-backend/pkg/logger"
	"github.com/freshfoldhq/freshfold-backend/pkg/metrics"
	"github.com/freshfoldhq/freshfold-backend/pkg/migrate"
	"github.com/freshfoldhq/freshfold-backend/pkg/outbox"
	"github.com/freshfoldhq/freshfold-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateways, err := buildGateways(cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to configure payment gateways", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	paymentsRepo := payments.NewRepository(conn)
	paymentsSvc, err := payments.NewService(payments.ServiceParams{
		Repository: paymentsRepo,
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Gateways:   gateways,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	trackingProjector := tracking.NewProjector(tracking.NewRepository(conn))

	loyaltySvc, err := loyalty.NewService(loyalty.NewRepository(conn), cfg.Loyalty)
	if err != nil {
		logg.Error(context.Background(), "failed to create loyalty service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repository: ordersRepo,
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Payments:   paymentsSvc,
		Pricing:    pricing.NewCalculator(cfg.Pricing),
		Tracking:   trackingProjector,
		Loyalty:    loyaltySvc,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	reconciliationSvc, err := reconciliation.NewService(reconciliation.ServiceParams{
		Payments:     paymentsSvc,
		PaymentsRepo: paymentsRepo,
		Orders:       ordersSvc,
		Tx:           dbClient,
		Gateways:     gateways,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation service", err)
		os.Exit(1)
	}

	assignmentSvc, err := assignment.NewService(assignment.ServiceParams{
		OrdersRepo:   ordersRepo,
		Orders:       ordersSvc,
		PaymentsRepo: paymentsRepo,
		Tx:           dbClient,
		Outbox:       outboxSvc,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create assignment service", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Orders:         ordersSvc,
		Payments:       paymentsSvc,
		Reconciliation: reconciliationSvc,
		Assignment:     assignmentSvc,
		Notifications:  notificationsSvc,
		Loyalty:        loyaltySvc,
		Tracking:       trackingProjector,
		Gateways:       gateways,
		WebhookMetrics: metrics.NewWebhookMetrics(prometheus.DefaultRegisterer),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown error", err)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}

// buildGateways constructs a client per configured provider. Deployments that
// only settle cash can run with none.
func buildGateways(cfg *config.Config) (map[enums.GatewayProvider]gateway.Client, error) {
	gateways := map[enums.GatewayProvider]gateway.Client{}

	if cfg.Paystack.SecretKey != "" {
		client, err := paystack.New(cfg.Paystack)
		if err != nil {
			return nil, err
		}
		gateways[enums.GatewayProviderPaystack] = client
	}

	if cfg.MoMo.SubscriptionKey != "" {
		client, err := momo.New(cfg.MoMo)
		if err != nil {
			return nil, err
		}
		gateways[enums.GatewayProviderMoMo] = client
	}

	return gateways, nil
}
