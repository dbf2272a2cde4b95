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

	"github.com/angelmondragon/aerogourmet-backend/api/routes"
	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/internal/auth"
	"github.com/angelmondragon/aerogourmet-backend/internal/concierge"
	"github.com/angelmondragon/aerogourmet-backend/internal/inventory"
	"github.com/angelmondragon/aerogourmet-backend/internal/invoices"
	"github.com/angelmondragon/aerogourmet-backend/internal/menu"
	"github.com/angelmondragon/aerogourmet-backend/internal/orders"
	"github.com/angelmondragon/aerogourmet-backend/internal/payments"
	"github.com/angelmondragon/aerogourmet-backend/internal/purchaseorders"
	"github.com/angelmondragon/aerogourmet-backend/internal/realtime"
	"github.com/angelmondragon/aerogourmet-backend/internal/users"
	"github.com/angelmondragon/aerogourmet-backend/internal/vendors"
	pkgAuth "github.com/angelmondragon/aerogourmet-backend/pkg/auth"
	"github.com/angelmondragon/aerogourmet-backend/pkg/auth/session"
	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/instance"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/metrics"
	"github.com/angelmondragon/aerogourmet-backend/pkg/migrate"
	"github.com/angelmondragon/aerogourmet-backend/pkg/outbox"
	"github.com/angelmondragon/aerogourmet-backend/pkg/redis"
	pkgstripe "github.com/angelmondragon/aerogourmet-backend/pkg/stripe"
)

const webhookEventTTL = 72 * time.Hour

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gormDB := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gormDB),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	must(logg, "auth service", err)

	activityService, err := activity.NewService(activity.NewRepository(gormDB), logg)
	must(logg, "activity service", err)

	hub := realtime.NewHub(realtime.HubParams{
		PubSub:  redisClient,
		Channel: cfg.Realtime.Channel,
		Metrics: metrics.NewRealtimeMetrics(registry),
		Logger:  logg,
	})
	defer hub.Close()

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repository:       orders.NewRepository(gormDB),
		TxRunner:         dbClient,
		Notifications:    outbox.NewService(outbox.NewRepository(gormDB), logg),
		Activity:         activityService,
		Broadcaster:      hub,
		Logger:           logg,
		NumberGenerator:  orders.NewNumberGenerator(cfg.Orders.NumberFormat, cfg.Orders.NumberPrefix),
		GuestUserID:      cfg.Orders.GuestUserID,
		AllowGuestOrders: cfg.FeatureFlags.AllowGuestOrders,
	})
	must(logg, "orders service", err)

	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Repository: inventory.NewRepository(gormDB),
		TxRunner:   dbClient,
		Activity:   activityService,
		Logger:     logg,
	})
	must(logg, "inventory service", err)

	menuService, err := menu.NewService(menu.NewRepository(gormDB), dbClient)
	must(logg, "menu service", err)

	vendorService, err := vendors.NewService(vendors.NewRepository(gormDB))
	must(logg, "vendor service", err)

	purchaseOrderService, err := purchaseorders.NewService(purchaseorders.NewRepository(gormDB), dbClient, activityService)
	must(logg, "purchase order service", err)

	conciergeService, err := concierge.NewService(concierge.NewRepository(gormDB), dbClient, activityService)
	must(logg, "concierge service", err)

	invoiceService, err := invoices.NewService(ordersService, cfg.Invoice, nil)
	must(logg, "invoice service", err)

	paymentParams := payments.ServiceParams{
		Repository: payments.NewRepository(gormDB),
		TxRunner:   dbClient,
		Orders:     ordersService,
		Activity:   activityService,
		Invoice:    cfg.Invoice,
		Currency:   cfg.Stripe.Currency,
		Logger:     logg,
	}
	var stripeClient *pkgstripe.Client
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
		must(logg, "stripe client", err)
		paymentParams.Intents = pkgstripe.NewPaymentIntentClient(stripeClient)
		paymentParams.Currency = stripeClient.Currency()
	} else {
		logg.Warn(context.Background(), "stripe not configured, card payments disabled")
	}
	paymentService, err := payments.NewService(paymentParams)
	must(logg, "payment service", err)

	webhookGuard, err := payments.NewEventGuard(redisClient, webhookEventTTL, "stripe")
	must(logg, "webhook guard", err)

	realtimeHandler := realtime.NewHandler(hub, realtime.HandlerOptions{
		PingInterval:   cfg.Realtime.PingInterval,
		PongWait:       cfg.Realtime.PongWait,
		AuthTimeout:    cfg.Realtime.AuthTimeout,
		RequireToken:   cfg.Realtime.RequireToken,
		AllowedOrigins: cfg.App.AllowedOrigins(),
		Verify: func(token string) (*pkgAuth.AccessTokenClaims, error) {
			claims, err := pkgAuth.ParseAccessToken(cfg.JWT, token)
			if err != nil {
				return nil, err
			}
			ok, err := sessionManager.HasSession(context.Background(), claims.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, errors.New("session revoked")
			}
			return claims, nil
		},
	})

	deps := routes.Dependencies{
		Config:         cfg,
		Logger:         logg,
		Registry:       registry,
		DB:             dbClient,
		Redis:          redisClient,
		Sessions:       sessionManager,
		Auth:           authService,
		Orders:         ordersService,
		Inventory:      inventoryService,
		Menu:           menuService,
		Vendors:        vendorService,
		PurchaseOrders: purchaseOrderService,
		Concierge:      conciergeService,
		Activity:       activityService,
		Invoices:       invoiceService,
		Payments:       paymentService,
		Realtime:       realtimeHandler,
	}
	// The webhook rejects events unless stripe is configured.
	if stripeClient != nil {
		deps.PaymentEvents = paymentService
		deps.WebhookGuard = webhookGuard
		deps.Stripe = stripeClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "addr", addr)

	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "realtime hub stopped", err)
		}
	}()

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func must(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+component, err)
	os.Exit(1)
}
