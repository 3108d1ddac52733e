package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/contactevin2u/orderops-api/api/routes"
	"github.com/contactevin2u/orderops-api/internal/accrual"
	"github.com/contactevin2u/orderops-api/internal/balance"
	"github.com/contactevin2u/orderops-api/internal/idempotency"
	"github.com/contactevin2u/orderops-api/internal/ledger"
	"github.com/contactevin2u/orderops-api/internal/orders"
	"github.com/contactevin2u/orderops-api/internal/payments"
	"github.com/contactevin2u/orderops-api/internal/plans"
	"github.com/contactevin2u/orderops-api/internal/reports"
	"github.com/contactevin2u/orderops-api/pkg/config"
	"github.com/contactevin2u/orderops-api/pkg/db"
	"github.com/contactevin2u/orderops-api/pkg/logger"
	"github.com/contactevin2u/orderops-api/pkg/metrics"
	"github.com/contactevin2u/orderops-api/pkg/migrate"
	"github.com/contactevin2u/orderops-api/pkg/redis"
)

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

	registry := prometheus.NewRegistry()
	accrualMetrics := metrics.NewAccrualMetrics(registry)

	orderRepo := orders.NewRepository(dbClient.DB())
	planRepo := plans.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	paymentRepo := payments.NewRepository(dbClient.DB())

	orderSvc, err := orders.NewService(dbClient, orderRepo, planRepo, ledgerRepo, paymentRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	accrualSvc, err := accrual.NewService(dbClient, planRepo, ledgerRepo, accrualMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create accrual service", err)
		os.Exit(1)
	}
	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	calculator, err := balance.NewCalculator(ledgerRepo, paymentRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create balance calculator", err)
		os.Exit(1)
	}
	reportSvc, err := reports.NewService(orderSvc, calculator)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}
	idempotencySvc, err := idempotency.NewService(idempotency.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			DBPinger:    dbClient,
			RedisPinger: redisClient,
			Orders:      orderSvc,
			OrdersRepo:  orderRepo,
			Accrual:     accrualSvc,
			Ledger:      ledgerSvc,
			Balance:     calculator,
			Reports:     reportSvc,
			Idempotency: idempotencySvc,
			Metrics:     registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
