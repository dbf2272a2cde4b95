package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/outbox"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notificationEmitter interface {
	EmitNotification(ctx context.Context, tx *gorm.DB, orderID uint, kind enums.NotificationType, actor *outbox.ActorRef) error
}

type activityRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry activity.Entry) error
}

// StatusBroadcaster pushes status changes to connected back-office clients.
type StatusBroadcaster interface {
	BroadcastOrderStatus(ctx context.Context, orderID uint, status enums.OrderStatus, history []models.OrderStatusHistory) error
}

// Service defines the order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error)
	ListOrders(ctx context.Context, actor Actor, filters ListFilters) (pagination.Page[models.Order], error)
	UpdateOrder(ctx context.Context, actor Actor, orderID uint, input UpdateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, actor Actor, orderID uint, status string, notes *string) (*StatusView, error)
	CancelOrder(ctx context.Context, actor Actor, orderID uint, notes *string) (*StatusView, error)
	StatusHistory(ctx context.Context, actor Actor, orderID uint) (*StatusView, error)
	DeleteOrder(ctx context.Context, actor Actor, orderID uint) error
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repository       Repository
	TxRunner         txRunner
	Notifications    notificationEmitter
	Activity         activityRecorder
	Broadcaster      StatusBroadcaster
	Logger           *logger.Logger
	NumberGenerator  NumberGenerator
	GuestUserID      uint
	AllowGuestOrders bool
	Now              func() time.Time
}

type service struct {
	repo        Repository
	tx          txRunner
	notify      notificationEmitter
	activity    activityRecorder
	broadcaster StatusBroadcaster
	logg        *logger.Logger
	newNumber   NumberGenerator
	guestUserID uint
	allowGuests bool
	now         func() time.Time
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notification emitter required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	if params.AllowGuestOrders && params.GuestUserID == 0 {
		return nil, fmt.Errorf("guest user id required when guest orders are allowed")
	}
	gen := params.NumberGenerator
	if gen == nil {
		gen = NewNumberGenerator(NumberFormatDated, "")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:        params.Repository,
		tx:          params.TxRunner,
		notify:      params.Notifications,
		activity:    params.Activity,
		broadcaster: params.Broadcaster,
		logg:        logg,
		newNumber:   gen,
		guestUserID: params.GuestUserID,
		allowGuests: params.AllowGuestOrders,
		now:         now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "items are required")
	}
	if strings.TrimSpace(input.FlightNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flightNumber is required")
	}
	if input.DepartureTime.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "departureTime is required")
	}

	ownerID := actor.UserID
	if !actor.Authenticated() {
		if !s.allowGuests {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required to place orders")
		}
		ownerID = s.guestUserID
	}

	location, err := enums.ParseLocation(input.Location)
	if err != nil {
		location = enums.LocationThessaloniki
	}

	menuIDs := make([]uint, 0, len(input.Items))
	for i, item := range input.Items {
		if item.MenuItemID == 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].menuItemId is required", i)
		}
		menuIDs = append(menuIDs, item.MenuItemID)
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	number, err := s.newNumber(now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	order := &models.Order{
		OrderNumber:         number,
		UserID:              ownerID,
		FlightNumber:        strings.TrimSpace(input.FlightNumber),
		Airline:             strings.TrimSpace(input.Airline),
		AircraftType:        strings.TrimSpace(input.AircraftType),
		DepartureAirport:    strings.TrimSpace(input.DepartureAirport),
		DepartureTime:       input.DepartureTime.UTC(),
		Location:            location,
		DeliveryAddress:     strings.TrimSpace(input.DeliveryAddress),
		PassengerCount:      positiveOr(input.PassengerCount, 1),
		CrewCount:           nonNegative(input.CrewCount),
		ContactName:         strings.TrimSpace(input.ContactName),
		ContactEmail:        strings.TrimSpace(input.ContactEmail),
		ContactPhone:        strings.TrimSpace(input.ContactPhone),
		SpecialInstructions: input.SpecialInstructions,
		Status:              enums.OrderStatusPending,
		PaymentStatus:       enums.PaymentStatusUnpaid,
		DeliveryFeeCents:    nonNegative64(input.DeliveryFeeCents),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		menu, err := repo.FindMenuItems(ctx, menuIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load menu items")
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		for i, in := range input.Items {
			menuItem, ok := menu[in.MenuItemID]
			if !ok {
				return pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d]: menu item %d not found", i, in.MenuItemID)
			}
			price := menuItem.PriceFor(location)
			if in.UnitPriceCents != nil {
				price = nonNegative64(*in.UnitPriceCents)
			}
			items = append(items, models.OrderItem{
				MenuItemID:          in.MenuItemID,
				Quantity:            positiveOr(in.Quantity, 1),
				UnitPriceCents:      price,
				SpecialInstructions: in.SpecialInstructions,
			})
		}
		order.Items = items
		order.TotalPriceCents = order.ItemsSubtotalCents() + order.DeliveryFeeCents

		if err := repo.Create(ctx, order); err != nil {
			return db.MapError(err, "order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return db.MapError(err, "order item")
		}
		order.Items = items

		created := &models.OrderStatusHistory{
			OrderID:     order.ID,
			Status:      enums.OrderStatusPending,
			Notes:       strPtr("Order placed"),
			ActorUserID: actorIDPtr(actor),
			ActorName:   actorName(actor, order),
		}
		if err := repo.AppendStatusHistory(ctx, created); err != nil {
			return db.MapError(err, "order status history")
		}

		if err := s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     &order.UserID,
			Action:     activity.ActionOrderCreated,
			EntityType: activity.EntityOrder,
			EntityID:   &order.ID,
			Details: map[string]any{
				"orderNumber":     order.OrderNumber,
				"flightNumber":    order.FlightNumber,
				"location":        order.Location,
				"totalPriceCents": order.TotalPriceCents,
				"guest":           !actor.Authenticated(),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order activity")
		}

		return s.notify.EmitNotification(ctx, tx, order.ID, enums.NotificationNewOrder, actorRef(actor, order.UserID))
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID)
	s.logg.Info(s.logg.WithField(logCtx, "order_number", order.OrderNumber), "order.created")
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, actor Actor, orderID uint) (*models.Order, error) {
	if !actor.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, db.MapError(err, "order")
	}
	if !canView(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, actor Actor, filters ListFilters) (pagination.Page[models.Order], error) {
	if !actor.Authenticated() {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	cursor, err := pagination.ParseCursor(filters.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query := listQuery{Limit: filters.Limit}
	if actor.IsStaff() {
		query.Status = filters.Status
		query.Kitchen = filters.Kitchen
	} else {
		owner := actor.UserID
		query.UserID = &owner
		query.Status = filters.Status
	}
	rows, err := s.repo.List(ctx, query, cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pagination.BuildPage(rows, filters.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

func (s *service) UpdateOrder(ctx context.Context, actor Actor, orderID uint, input UpdateOrderInput) (*models.Order, error) {
	var newStatus *enums.OrderStatus
	if input.Status != nil {
		parsed, err := enums.ParseOrderStatus(strings.TrimSpace(*input.Status))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		newStatus = &parsed
	}

	var history []models.OrderStatusHistory
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return db.MapError(err, "order")
		}
		if err := authorizeUpdate(actor, order); err != nil {
			return err
		}

		updates := input.toUpdates()
		if input.DeliveryFeeCents != nil {
			subtotal := order.TotalPriceCents - order.DeliveryFeeCents
			fee := nonNegative64(*input.DeliveryFeeCents)
			updates["delivery_fee_cents"] = fee
			updates["total_price_cents"] = subtotal + fee
		}
		if newStatus != nil {
			updates["status"] = *newStatus
		}
		updates["updated_at"] = nextUpdatedAt(s.now(), order.UpdatedAt)
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return db.MapError(err, "order")
		}

		action := activity.ActionOrderUpdated
		kind := enums.NotificationOrderUpdated
		if newStatus != nil {
			entry := &models.OrderStatusHistory{
				OrderID:     order.ID,
				Status:      *newStatus,
				Notes:       trimmedPtr(input.Notes),
				ActorUserID: actorIDPtr(actor),
				ActorName:   actorName(actor, order),
			}
			if err := repo.AppendStatusHistory(ctx, entry); err != nil {
				return db.MapError(err, "order status history")
			}
			action = activity.ActionOrderStatusChanged
			kind = newStatus.NotificationType()
		}

		details := map[string]any{"fields": updatedFields(updates)}
		if newStatus != nil {
			details["previousStatus"] = order.Status
			details["status"] = *newStatus
		}
		if err := s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     actorIDPtr(actor),
			Action:     action,
			EntityType: activity.EntityOrder,
			EntityID:   &order.ID,
			Details:    details,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record order activity")
		}

		if err := s.notify.EmitNotification(ctx, tx, order.ID, kind, actorRef(actor, order.UserID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order notification")
		}

		if newStatus != nil {
			history, err = repo.ListStatusHistory(ctx, order.ID)
			if err != nil {
				return db.MapError(err, "order status history")
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	if newStatus != nil {
		s.broadcast(ctx, orderID, *newStatus, history)
	}

	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, db.MapError(err, "order")
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uint, status string, notes *string) (*StatusView, error) {
	if strings.TrimSpace(status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}
	order, err := s.UpdateOrder(ctx, actor, orderID, UpdateOrderInput{Status: &status, Notes: notes})
	if err != nil {
		return nil, err
	}
	return statusView(order), nil
}

func (s *service) CancelOrder(ctx context.Context, actor Actor, orderID uint, notes *string) (*StatusView, error) {
	return s.UpdateStatus(ctx, actor, orderID, string(enums.OrderStatusCancelled), notes)
}

func (s *service) StatusHistory(ctx context.Context, actor Actor, orderID uint) (*StatusView, error) {
	order, err := s.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return statusView(order), nil
}

func (s *service) DeleteOrder(ctx context.Context, actor Actor, orderID uint) error {
	if !actor.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only administrators can delete orders")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return db.MapError(err, "order")
		}
		if err := repo.Delete(ctx, order.ID); err != nil {
			return db.MapError(err, "order")
		}
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     actorIDPtr(actor),
			Action:     activity.ActionOrderDeleted,
			EntityType: activity.EntityOrder,
			EntityID:   &order.ID,
			Details:    map[string]any{"orderNumber": order.OrderNumber, "status": order.Status},
		})
	})
	if err != nil {
		return mapStoreError(err)
	}
	s.logg.Warn(s.logg.WithOrderID(ctx, orderID), "order.hard_deleted")
	return nil
}

// broadcast runs after commit; failures never reach the caller.
func (s *service) broadcast(ctx context.Context, orderID uint, status enums.OrderStatus, history []models.OrderStatusHistory) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.BroadcastOrderStatus(ctx, orderID, status, history); err != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, orderID), "order.broadcast_failed", err)
	}
}

func authorizeUpdate(actor Actor, order *models.Order) error {
	if !actor.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if actor.IsStaff() {
		return nil
	}
	if order.UserID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if !order.Status.OwnerEditable() {
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "order can no longer be changed in status %s", order.Status)
	}
	return nil
}

func canView(actor Actor, order *models.Order) bool {
	return actor.IsStaff() || order.UserID == actor.UserID
}

func (in UpdateOrderInput) toUpdates() map[string]any {
	updates := map[string]any{}
	setString := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	setString("flight_number", in.FlightNumber)
	setString("airline", in.Airline)
	setString("aircraft_type", in.AircraftType)
	setString("departure_airport", in.DepartureAirport)
	setString("delivery_address", in.DeliveryAddress)
	setString("contact_name", in.ContactName)
	setString("contact_email", in.ContactEmail)
	setString("contact_phone", in.ContactPhone)
	if in.SpecialInstructions != nil {
		updates["special_instructions"] = trimmedPtr(in.SpecialInstructions)
	}
	if in.DepartureTime != nil && !in.DepartureTime.IsZero() {
		updates["departure_time"] = in.DepartureTime.UTC()
	}
	if in.PassengerCount != nil {
		updates["passenger_count"] = positiveOr(*in.PassengerCount, 1)
	}
	if in.CrewCount != nil {
		updates["crew_count"] = nonNegative(*in.CrewCount)
	}
	return updates
}

func updatedFields(updates map[string]any) []string {
	fields := make([]string, 0, len(updates))
	for column := range updates {
		if column == "updated_at" {
			continue
		}
		fields = append(fields, column)
	}
	return fields
}

func statusView(order *models.Order) *StatusView {
	history := order.StatusHistory
	if history == nil {
		history = []models.OrderStatusHistory{}
	}
	return &StatusView{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		UpdatedAt:     order.UpdatedAt,
		StatusHistory: history,
	}
}

func actorRef(actor Actor, fallbackUserID uint) *outbox.ActorRef {
	if !actor.Authenticated() {
		return &outbox.ActorRef{UserID: fallbackUserID, Role: enums.UserRoleClient}
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
}

func actorIDPtr(actor Actor) *uint {
	if !actor.Authenticated() {
		return nil
	}
	id := actor.UserID
	return &id
}

func actorName(actor Actor, order *models.Order) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	if !actor.Authenticated() {
		if order.ContactName != "" {
			return order.ContactName
		}
		return "Guest"
	}
	return fmt.Sprintf("user-%d", actor.UserID)
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request cancelled")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order store failure")
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func nonNegative(value int) int {
	if value < 0 {
		return 0
	}
	return value
}

func nonNegative64(value int64) int64 {
	if value < 0 {
		return 0
	}
	return value
}

func strPtr(v string) *string {
	return &v
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
