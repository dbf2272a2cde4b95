package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/aerogourmet-backend/api/middleware"
	internalorders "github.com/angelmondragon/aerogourmet-backend/internal/orders"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

type stubOrdersService struct {
	create  func(ctx context.Context, actor internalorders.Actor, input internalorders.CreateOrderInput) (*models.Order, error)
	list    func(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters) (pagination.Page[models.Order], error)
	update  func(ctx context.Context, actor internalorders.Actor, id uint, input internalorders.UpdateOrderInput) (*models.Order, error)
	status  func(ctx context.Context, actor internalorders.Actor, id uint, status string, notes *string) (*internalorders.StatusView, error)
	deleted []uint
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, actor internalorders.Actor, input internalorders.CreateOrderInput) (*models.Order, error) {
	return s.create(ctx, actor, input)
}

func (s *stubOrdersService) GetOrder(ctx context.Context, actor internalorders.Actor, id uint) (*models.Order, error) {
	if id == 404 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return &models.Order{ID: id}, nil
}

func (s *stubOrdersService) ListOrders(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters) (pagination.Page[models.Order], error) {
	return s.list(ctx, actor, filters)
}

func (s *stubOrdersService) UpdateOrder(ctx context.Context, actor internalorders.Actor, id uint, input internalorders.UpdateOrderInput) (*models.Order, error) {
	return s.update(ctx, actor, id, input)
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, actor internalorders.Actor, id uint, status string, notes *string) (*internalorders.StatusView, error) {
	return s.status(ctx, actor, id, status, notes)
}

func (s *stubOrdersService) CancelOrder(ctx context.Context, actor internalorders.Actor, id uint, notes *string) (*internalorders.StatusView, error) {
	return s.status(ctx, actor, id, string(enums.OrderStatusCancelled), notes)
}

func (s *stubOrdersService) StatusHistory(ctx context.Context, actor internalorders.Actor, id uint) (*internalorders.StatusView, error) {
	return &internalorders.StatusView{OrderID: id, Status: enums.OrderStatusPending}, nil
}

func (s *stubOrdersService) DeleteOrder(ctx context.Context, actor internalorders.Actor, id uint) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newRouter(svc internalorders.Service, identity *middleware.Identity) http.Handler {
	r := chi.NewRouter()
	if identity != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), *identity)))
			})
		})
	}
	r.Post("/orders", Create(svc, nil))
	r.Get("/orders", List(svc, nil))
	r.Get("/orders/{orderID}", Get(svc, nil))
	r.Patch("/orders/{orderID}", Update(svc, nil))
	r.Post("/orders/{orderID}/status", UpdateStatus(svc, nil))
	r.Post("/orders/{orderID}/cancel", Cancel(svc, nil))
	r.Delete("/orders/{orderID}", Delete(svc, nil))
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error.Code
}

const createBody = `{
	"flightNumber": "A3 612",
	"departureTime": "2026-07-01T09:30:00Z",
	"location": "mykonos",
	"passengerCount": 6,
	"deliveryFeeCents": 15000,
	"items": [{"menuItemId": 1, "quantity": 2, "unitPriceCents": 2000}, {"menuItemId": 2, "quantity": 1}]
}`

func TestCreateGuestOrder(t *testing.T) {
	var got internalorders.CreateOrderInput
	var gotActor internalorders.Actor
	svc := &stubOrdersService{create: func(ctx context.Context, actor internalorders.Actor, input internalorders.CreateOrderInput) (*models.Order, error) {
		gotActor, got = actor, input
		return &models.Order{ID: 9, OrderNumber: "AG-20260701-ABC123"}, nil
	}}

	rec := do(newRouter(svc, nil), http.MethodPost, "/orders", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	if gotActor.Authenticated() {
		t.Fatalf("expected anonymous actor, got %+v", gotActor)
	}
	if len(got.Items) != 2 || got.Items[1].UnitPriceCents != nil {
		t.Fatalf("unexpected items %+v", got.Items)
	}
	if got.Items[0].UnitPriceCents == nil || *got.Items[0].UnitPriceCents != 2000 {
		t.Fatalf("expected explicit unit price 2000")
	}
	if got.Location != "mykonos" || got.DeliveryFeeCents != 15000 {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestCreateRejectsMissingItems(t *testing.T) {
	svc := &stubOrdersService{create: func(ctx context.Context, actor internalorders.Actor, input internalorders.CreateOrderInput) (*models.Order, error) {
		t.Fatal("service should not be called")
		return nil, nil
	}}

	rec := do(newRouter(svc, nil), http.MethodPost, "/orders", `{"flightNumber":"A3 1","departureTime":"2026-07-01T09:30:00Z","items":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", code)
	}
}

func TestCreateCoercesLoosePayload(t *testing.T) {
	var got internalorders.CreateOrderInput
	svc := &stubOrdersService{create: func(ctx context.Context, actor internalorders.Actor, input internalorders.CreateOrderInput) (*models.Order, error) {
		got = input
		return &models.Order{ID: 10}, nil
	}}

	body := `{
		"flightNumber": 612,
		"departureTime": "2026-07-01T09:30",
		"location": "Mykonos",
		"passengerCount": "12",
		"crewCount": "four",
		"contactEmail": "ops at airline",
		"contactName": "` + strings.Repeat("Κ", 200) + `",
		"deliveryFee": "15000",
		"bookingSource": "zapier",
		"items": [
			{"menuItemId": 1, "quantity": 2, "unitPrice": 2000},
			{"menuItemId": "2", "quantity": "1", "unitPrice": "1000", "allergens": []},
			{"menuItemId": 3, "quantity": 1.6, "unitPrice": "market"}
		]
	}`
	rec := do(newRouter(svc, nil), http.MethodPost, "/orders", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}

	if got.FlightNumber != "612" || got.PassengerCount != 12 || got.CrewCount != 0 {
		t.Fatalf("unexpected coercion %+v", got)
	}
	if got.ContactEmail != "" {
		t.Fatalf("expected invalid email to be dropped, got %q", got.ContactEmail)
	}
	if n := len([]rune(got.ContactName)); n != 128 {
		t.Fatalf("expected contact name capped at 128 runes, got %d", n)
	}
	if got.Location != "mykonos" || got.DeliveryFeeCents != 15000 {
		t.Fatalf("unexpected location or fee %+v", got)
	}
	if !got.DepartureTime.Equal(time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected departure %s", got.DepartureTime)
	}
	if len(got.Items) != 3 {
		t.Fatalf("expected 3 items got %d", len(got.Items))
	}
	if p := got.Items[0].UnitPriceCents; p == nil || *p != 2000 {
		t.Fatalf("expected unitPrice 2000 on first item")
	}
	if second := got.Items[1]; second.MenuItemID != 2 || second.Quantity != 1 || second.UnitPriceCents == nil || *second.UnitPriceCents != 1000 {
		t.Fatalf("unexpected string-typed item %+v", second)
	}
	if third := got.Items[2]; third.Quantity != 2 || third.UnitPriceCents != nil {
		t.Fatalf("expected rounded quantity and menu price fallback, got %+v", third)
	}
}

func TestListParsesStaffFilters(t *testing.T) {
	var got internalorders.ListFilters
	var gotActor internalorders.Actor
	svc := &stubOrdersService{list: func(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters) (pagination.Page[models.Order], error) {
		gotActor, got = actor, filters
		return pagination.Page[models.Order]{}, nil
	}}
	identity := &middleware.Identity{UserID: 3, Name: "Kitchen", Role: enums.UserRoleKitchen}

	rec := do(newRouter(svc, identity), http.MethodGet, "/orders?status=ready&kitchen=thessaloniki&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got.Status == nil || *got.Status != enums.OrderStatusReady {
		t.Fatalf("expected ready filter got %+v", got.Status)
	}
	if got.Kitchen == nil || *got.Kitchen != enums.LocationThessaloniki {
		t.Fatalf("expected thessaloniki filter got %+v", got.Kitchen)
	}
	if got.Limit != 5 {
		t.Fatalf("expected limit 5 got %d", got.Limit)
	}
	if gotActor.UserID != 3 || !gotActor.IsStaff() {
		t.Fatalf("unexpected actor %+v", gotActor)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	rec := do(newRouter(&stubOrdersService{}, nil), http.MethodGet, "/orders?status=teleported", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestGetMapsNotFound(t *testing.T) {
	rec := do(newRouter(&stubOrdersService{}, nil), http.MethodGet, "/orders/404", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	rec = do(newRouter(&stubOrdersService{}, nil), http.MethodGet, "/orders/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id got %d", rec.Code)
	}
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	svc := &stubOrdersService{update: func(ctx context.Context, actor internalorders.Actor, id uint, input internalorders.UpdateOrderInput) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to update this order")
	}}
	identity := &middleware.Identity{UserID: 99, Role: enums.UserRoleClient}

	rec := do(newRouter(svc, identity), http.MethodPatch, "/orders/1", `{"crewCount": 4}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestUpdateStatusPassesNotes(t *testing.T) {
	var gotStatus string
	var gotNotes *string
	svc := &stubOrdersService{status: func(ctx context.Context, actor internalorders.Actor, id uint, status string, notes *string) (*internalorders.StatusView, error) {
		gotStatus, gotNotes = status, notes
		return &internalorders.StatusView{OrderID: id, Status: enums.OrderStatus(status)}, nil
	}}
	identity := &middleware.Identity{UserID: 1, Role: enums.UserRoleAdmin}

	rec := do(newRouter(svc, identity), http.MethodPost, "/orders/5/status", `{"status":"ready","notes":"on the trolley"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if gotStatus != "ready" || gotNotes == nil || *gotNotes != "on the trolley" {
		t.Fatalf("unexpected status call %s %v", gotStatus, gotNotes)
	}

	rec = do(newRouter(svc, identity), http.MethodPost, "/orders/5/cancel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on cancel got %d", rec.Code)
	}
	if gotStatus != string(enums.OrderStatusCancelled) {
		t.Fatalf("expected cancelled got %s", gotStatus)
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	svc := &stubOrdersService{}
	identity := &middleware.Identity{UserID: 1, Role: enums.UserRoleAdmin}
	rec := do(newRouter(svc, identity), http.MethodDelete, "/orders/8", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != 8 {
		t.Fatalf("unexpected deletes %v", svc.deleted)
	}
}
