package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/contactevin2u/orderops-api/internal/accrual"
	"github.com/contactevin2u/orderops-api/internal/cron"
	"github.com/contactevin2u/orderops-api/internal/ledger"
	"github.com/contactevin2u/orderops-api/internal/plans"
	"github.com/contactevin2u/orderops-api/pkg/config"
	"github.com/contactevin2u/orderops-api/pkg/db"
	"github.com/contactevin2u/orderops-api/pkg/logger"
	"github.com/contactevin2u/orderops-api/pkg/metrics"
	"github.com/contactevin2u/orderops-api/pkg/migrate"
	"github.com/contactevin2u/orderops-api/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "accrual-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "accrual-worker",
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

	accrualMetrics := metrics.NewAccrualMetrics(prometheus.DefaultRegisterer)

	accrualSvc, err := accrual.NewService(
		dbClient,
		plans.NewRepository(dbClient.DB()),
		ledger.NewRepository(dbClient.DB()),
		accrualMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create accrual service", err)
		os.Exit(1)
	}

	job, err := cron.NewAccrualJob(cron.AccrualJobParams{
		Logger:    logg,
		Accrual:   accrualSvc,
		BatchSize: cfg.Accrual.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create accrual job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Accrual.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(job),
		Lock:     lock,
		Metrics:  accrualMetrics,
		Interval: cfg.Accrual.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting accrual worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "accrual worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "accrual worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("accrual-worker:%s", env)
}
