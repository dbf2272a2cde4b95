package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/internal/cron"
	"github.com/angelmondragon/aerogourmet-backend/internal/inventory"
	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/instance"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/metrics"
	"github.com/angelmondragon/aerogourmet-backend/pkg/migrate"
	"github.com/angelmondragon/aerogourmet-backend/pkg/outbox"
	"github.com/angelmondragon/aerogourmet-backend/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	boot := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		boot.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env, "instance": instance.GetID()},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shut down")
}

// run wires the jobs and blocks until ctx is cancelled. Connections are
// closed on the way out whatever the outcome.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	service, err := buildService(cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}

	logg.Info(logg.WithFields(ctx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"jobs":        service.Names(),
		"interval":    cfg.Cron.Interval.String(),
	}), "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	gormDB := dbClient.DB()
	outboxRepo := outbox.NewRepository(gormDB)

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:              logg,
		DB:                  dbClient,
		Repository:          outboxRepo,
		Retention:           cfg.Cron.OutboxRetention,
		DeadLetters:         outbox.NewDLQRepository(gormDB),
		DeadLetterRetention: cfg.Cron.DeadLetterRetention,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}
	jobs := []cron.Job{retention}

	if cfg.Cron.LowStockDigestEnable {
		activityService, err := activity.NewService(activity.NewRepository(gormDB), logg)
		if err != nil {
			return nil, fmt.Errorf("activity service: %w", err)
		}
		inventoryService, err := inventory.NewService(inventory.ServiceParams{
			Repository: inventory.NewRepository(gormDB),
			TxRunner:   dbClient,
			Activity:   activityService,
			Logger:     logg,
		})
		if err != nil {
			return nil, fmt.Errorf("inventory service: %w", err)
		}
		digest, err := cron.NewLowStockDigestJob(cron.LowStockDigestJobParams{
			Logger:    logg,
			DB:        dbClient,
			Inventory: inventoryService,
			Outbox:    outbox.NewService(outboxRepo, logg),
			Once:      redisClient,
		})
		if err != nil {
			return nil, fmt.Errorf("low stock digest job: %w", err)
		}
		jobs = append(jobs, digest)
	}

	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceName+":"+env), cfg.Cron.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("cron lock: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Jobs:     jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("cron service: %w", err)
	}
	return service, nil
}
