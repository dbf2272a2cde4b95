package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aerogourmet-backend/internal/menu"
	"github.com/angelmondragon/aerogourmet-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/aerogourmet-backend/pkg/auth"
	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubOrders struct {
	orders.Service
	created []orders.Actor
}

func (s *stubOrders) CreateOrder(ctx context.Context, actor orders.Actor, input orders.CreateOrderInput) (*models.Order, error) {
	s.created = append(s.created, actor)
	return &models.Order{ID: 1}, nil
}

func (s *stubOrders) ListOrders(ctx context.Context, actor orders.Actor, filters orders.ListFilters) (pagination.Page[models.Order], error) {
	return pagination.Page[models.Order]{}, nil
}

// UpdateStatus mirrors the owner rule: order 1 belongs to user 5.
func (s *stubOrders) UpdateStatus(ctx context.Context, actor orders.Actor, id uint, status string, notes *string) (*orders.StatusView, error) {
	if !actor.IsStaff() && actor.UserID != 5 {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return &orders.StatusView{OrderID: id, Status: enums.OrderStatus(status)}, nil
}

type stubMenu struct {
	menu.Service
}

func (stubMenu) List(ctx context.Context, filters menu.Filters) ([]models.MenuItem, error) {
	return []models.MenuItem{{ID: 1, Name: "Greek salad"}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "aerogourmet", ExpirationMinutes: 30},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *stubOrders, *config.Config) {
	t.Helper()
	cfg := testConfig()
	ordersSvc := &stubOrders{}
	h := NewRouter(Dependencies{
		Config:   cfg,
		Logger:   logger.Nop(),
		Registry: prometheus.NewRegistry(),
		DB:       stubPinger{},
		Sessions: stubSessions{},
		Orders:   ordersSvc,
		Menu:     stubMenu{},
	})
	return h, ordersSvc, cfg
}

func token(t *testing.T, cfg *config.Config, userID uint, role enums.UserRole) string {
	t.Helper()
	tok, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Name: "Test", Role: role, SessionID: "s1"})
	require.NoError(t, err)
	return tok
}

func call(h http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const orderBody = `{"flightNumber":"A3 100","departureTime":"2026-07-01T09:30:00Z","items":[{"menuItemId":1,"quantity":1}]}`

func TestHealthAndMetricsArePublic(t *testing.T) {
	h, _, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/health/ready", "", "").Code)

	rec := call(h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestGuestsCanCreateOrders(t *testing.T) {
	h, svc, cfg := newTestRouter(t)

	rec := call(h, http.MethodPost, "/api/v1/orders", orderBody, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(h, http.MethodPost, "/api/v1/orders", orderBody, token(t, cfg, 5, enums.UserRoleClient))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, svc.created, 2)
	assert.False(t, svc.created[0].Authenticated())
	assert.Equal(t, uint(5), svc.created[1].UserID)
}

func TestOrderListRequiresAuth(t *testing.T) {
	h, _, cfg := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodGet, "/api/v1/orders", "", "").Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/api/v1/orders", "", token(t, cfg, 5, enums.UserRoleClient)).Code)
}

func TestStaffOnlyRoutes(t *testing.T) {
	h, _, cfg := newTestRouter(t)
	client := token(t, cfg, 5, enums.UserRoleClient)

	assert.Equal(t, http.StatusForbidden, call(h, http.MethodGet, "/api/v1/inventory/low-stock", "", client).Code)
	assert.Equal(t, http.StatusForbidden, call(h, http.MethodGet, "/api/v1/activity-logs", "", token(t, cfg, 6, enums.UserRoleKitchen)).Code)
}

func TestOrderStatusDefersToOwnership(t *testing.T) {
	h, _, cfg := newTestRouter(t)
	body := `{"status":"processing"}`

	assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodPost, "/api/v1/orders/1/status", body, "").Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodPost, "/api/v1/orders/1/status", body, token(t, cfg, 5, enums.UserRoleClient)).Code)
	assert.Equal(t, http.StatusForbidden, call(h, http.MethodPost, "/api/v1/orders/1/status", body, token(t, cfg, 9, enums.UserRoleClient)).Code)
	assert.Equal(t, http.StatusOK, call(h, http.MethodPost, "/api/v1/orders/1/status", body, token(t, cfg, 6, enums.UserRoleKitchen)).Code)
}

func TestMenuIsPublic(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := call(h, http.MethodGet, "/api/v1/menu-items", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Greek salad")

	assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodPost, "/api/v1/menu-items", `{}`, "").Code)
}

func TestStripeWebhookWithoutPaymentsIsUnavailable(t *testing.T) {
	h, _, _ := newTestRouter(t)
	rec := call(h, http.MethodPost, "/webhooks/stripe", `{}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
