package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/internal/inventory"
	"github.com/angelmondragon/aerogourmet-backend/internal/notifications"
	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/instance"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/metrics"
	"github.com/angelmondragon/aerogourmet-backend/pkg/migrate"
	"github.com/angelmondragon/aerogourmet-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notification-dispatcher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "notification-dispatcher"

	logg = logger.New(logger.Options{
		ServiceName: "notification-dispatcher",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env, "instance": instance.GetID()},
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	activityService, err := activity.NewService(activity.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create activity service", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repository: inventory.NewRepository(dbClient.DB()),
		TxRunner:   dbClient,
		Activity:   activityService,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	params := notifications.DispatcherParams{
		Orders:    notifications.NewRepository(dbClient.DB()),
		Inventory: inventoryService,
		Email:     notifications.NewEmailSender(cfg.Sendgrid, logg),
		Activity:  activityService,
		Config:    cfg.Notifications,
		Metrics:   dispatchMetrics,
		Logger:    logg,
	}
	// Optional channels stay nil interfaces when unconfigured.
	if slackPoster := notifications.NewSlackPoster(cfg.Slack); slackPoster != nil {
		params.Chat = slackPoster
	}
	if zapierPoster := notifications.NewZapierPoster(cfg.Zapier); zapierPoster != nil {
		params.Webhook = zapierPoster
	}
	dispatcher, err := notifications.NewDispatcher(params)
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Handler:       dispatcher,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Metrics:       dispatchMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "serviceKind", cfg.Service.Kind)

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "starting notification dispatcher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification dispatcher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "notification dispatcher shutting down gracefully")
}
