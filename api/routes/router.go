package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/aerogourmet-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/aerogourmet-backend/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/aerogourmet-backend/api/controllers/webhooks"
	"github.com/angelmondragon/aerogourmet-backend/api/middleware"
	"github.com/angelmondragon/aerogourmet-backend/internal/auth"
	"github.com/angelmondragon/aerogourmet-backend/internal/inventory"
	"github.com/angelmondragon/aerogourmet-backend/internal/menu"
	"github.com/angelmondragon/aerogourmet-backend/internal/orders"
	"github.com/angelmondragon/aerogourmet-backend/internal/purchaseorders"
	"github.com/angelmondragon/aerogourmet-backend/pkg/auth/session"
	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/metrics"
)

// RedisStore is the redis surface the HTTP layer needs.
type RedisStore interface {
	middleware.ResponseStore
	controllers.Pinger
	middleware.RateLimitStore
}

type signingSecretSource interface {
	SigningSecret() string
}

// Dependencies carries everything the router wires into handlers. Payments
// and the Stripe webhook are optional and respond 503 when unset.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker

	Auth           auth.Service
	Orders         orders.Service
	Inventory      inventory.Service
	Menu           menu.Service
	Vendors        controllers.VendorService
	PurchaseOrders purchaseorders.Service
	Concierge      controllers.ConciergeService
	Activity       controllers.ActivityLister
	Invoices       ordercontrollers.InvoiceService
	Payments       ordercontrollers.PaymentService
	PaymentEvents  webhookcontrollers.PaymentEventHandler
	WebhookGuard   webhookcontrollers.EventGuard
	Stripe         signingSecretSource
	Realtime       http.Handler
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	var httpMetrics *metrics.HTTPMetrics
	if deps.Registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(deps.Registry)
	}

	var idemStore middleware.ResponseStore
	var rateStore middleware.RateLimitStore
	if deps.Redis != nil {
		idemStore = deps.Redis
		rateStore = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, httpMetrics),
	)

	limits := cfg.RateLimit
	loginLimit := middleware.RateLimit(middleware.RateLimitPolicy{
		Name:       "login",
		Window:     limits.LoginWindow,
		IPLimit:    limits.LoginIPLimit,
		EmailLimit: limits.LoginEmailLimit,
	}, rateStore, logg)
	registerLimit := middleware.RateLimit(middleware.RateLimitPolicy{
		Name:       "register",
		Window:     limits.RegisterWindow,
		IPLimit:    limits.RegisterIPLimit,
		EmailLimit: limits.RegisterEmailLimit,
	}, rateStore, logg)
	guestOrderLimit := middleware.RateLimit(middleware.RateLimitPolicy{
		Name:          "guest-order",
		Window:        limits.GuestOrderWindow,
		IPLimit:       limits.GuestOrderIPLimit,
		AnonymousOnly: true,
	}, rateStore, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
	if deps.Realtime != nil {
		r.Handle("/ws", deps.Realtime)
	}

	r.Post("/webhooks/stripe", webhookcontrollers.StripeWebhook(deps.PaymentEvents, deps.Stripe, deps.WebhookGuard, logg))

	authn := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	optionalAuthn := middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg)
	staff := middleware.RequireRole(logg, enums.UserRoleAdmin, enums.UserRoleKitchen)
	admin := middleware.RequireRole(logg, enums.UserRoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(registerLimit).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(authn).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Route("/menu-items", func(r chi.Router) {
			r.Get("/", controllers.ListMenuItems(deps.Menu, logg))
			r.Get("/{menuItemID}", controllers.GetMenuItem(deps.Menu, logg))
			r.Get("/{menuItemID}/ingredients", controllers.GetMenuItemIngredients(deps.Menu, logg))
			r.Group(func(r chi.Router) {
				r.Use(authn, admin)
				r.Post("/", controllers.CreateMenuItem(deps.Menu, logg))
				r.Patch("/{menuItemID}", controllers.UpdateMenuItem(deps.Menu, logg))
				r.Delete("/{menuItemID}", controllers.DeleteMenuItem(deps.Menu, logg))
				r.Put("/{menuItemID}/ingredients", controllers.ReplaceMenuItemIngredients(deps.Menu, logg))
			})
		})

		idempotent := middleware.Idempotency(idemStore, logg)

		r.Route("/orders", func(r chi.Router) {
			r.With(optionalAuthn, guestOrderLimit, idempotent).Post("/", ordercontrollers.Create(deps.Orders, logg))

			r.Group(func(r chi.Router) {
				r.Use(authn, idempotent)
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/{orderID}", ordercontrollers.Get(deps.Orders, logg))
				r.Patch("/{orderID}", ordercontrollers.Update(deps.Orders, logg))
				r.Post("/{orderID}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
				r.Get("/{orderID}/status-history", ordercontrollers.StatusHistory(deps.Orders, logg))
				r.Get("/{orderID}/invoice", ordercontrollers.Invoice(deps.Invoices, logg))
				r.Get("/{orderID}/payments", ordercontrollers.ListPayments(deps.Payments, logg))
				r.Post("/{orderID}/payment-intent", ordercontrollers.CreatePaymentIntent(deps.Payments, logg))
				r.Post("/{orderID}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
				r.With(admin).Delete("/{orderID}", ordercontrollers.Delete(deps.Orders, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Use(authn, staff, idempotent)
			r.Post("/order-consumption", controllers.ConsumeForOrder(deps.Inventory, logg))
			r.Get("/transactions", controllers.ListInventoryTransactions(deps.Inventory, logg))
			r.Post("/transactions", controllers.CreateInventoryTransaction(deps.Inventory, logg))
			r.Get("/low-stock", controllers.LowStock(deps.Inventory, logg))
			r.Get("/low-stock/export", controllers.ExportLowStock(deps.Inventory, logg))
			r.Route("/inventory-items", func(r chi.Router) {
				r.Get("/", controllers.ListInventoryItems(deps.Inventory, logg))
				r.Get("/{itemID}", controllers.GetInventoryItem(deps.Inventory, logg))
				r.With(admin).Post("/", controllers.CreateInventoryItem(deps.Inventory, logg))
				r.With(admin).Patch("/{itemID}", controllers.UpdateInventoryItem(deps.Inventory, logg))
				r.With(admin).Delete("/{itemID}", controllers.DeleteInventoryItem(deps.Inventory, logg))
			})
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Use(authn, staff)
			r.Get("/", controllers.ListVendors(deps.Vendors, logg))
			r.Get("/{vendorID}", controllers.GetVendor(deps.Vendors, logg))
			r.With(admin).Post("/", controllers.CreateVendor(deps.Vendors, logg))
			r.With(admin).Patch("/{vendorID}", controllers.UpdateVendor(deps.Vendors, logg))
			r.With(admin).Delete("/{vendorID}", controllers.DeleteVendor(deps.Vendors, logg))
		})

		r.Route("/purchase-orders", func(r chi.Router) {
			r.Use(authn, admin, idempotent)
			r.Get("/", controllers.ListPurchaseOrders(deps.PurchaseOrders, logg))
			r.Post("/", controllers.CreatePurchaseOrder(deps.PurchaseOrders, logg))
			r.Get("/{purchaseOrderID}", controllers.GetPurchaseOrder(deps.PurchaseOrders, logg))
			r.Patch("/{purchaseOrderID}", controllers.UpdatePurchaseOrder(deps.PurchaseOrders, logg))
			r.Delete("/{purchaseOrderID}", controllers.DeletePurchaseOrder(deps.PurchaseOrders, logg))
		})

		r.Route("/purchase-order-items", func(r chi.Router) {
			r.Use(authn, admin)
			r.Get("/", controllers.ListPurchaseOrderItems(deps.PurchaseOrders, logg))
			r.Post("/", controllers.CreatePurchaseOrderItem(deps.PurchaseOrders, logg))
			r.Patch("/{itemID}", controllers.UpdatePurchaseOrderItem(deps.PurchaseOrders, logg))
			r.Delete("/{itemID}", controllers.DeletePurchaseOrderItem(deps.PurchaseOrders, logg))
		})

		r.Route("/concierge-requests", func(r chi.Router) {
			r.Use(authn, idempotent)
			r.Get("/", controllers.ListConciergeRequests(deps.Concierge, logg))
			r.Post("/", controllers.CreateConciergeRequest(deps.Concierge, logg))
			r.Get("/{requestID}", controllers.GetConciergeRequest(deps.Concierge, logg))
			r.With(admin).Patch("/{requestID}", controllers.ReviewConciergeRequest(deps.Concierge, logg))
		})

		r.With(authn, admin).Get("/activity-logs", controllers.ListActivityLogs(deps.Activity, logg))
	})

	return r
}
