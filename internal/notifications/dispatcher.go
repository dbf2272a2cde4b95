package notifications

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/metrics"
	"github.com/angelmondragon/aerogourmet-backend/pkg/outbox"
)

// Delivery channels, used as metric labels and on activity rows.
const (
	ChannelEmail  = "email"
	ChannelSlack  = "slack"
	ChannelZapier = "zapier"
)

// ErrUndeliverable marks outbox events that can never be processed, such as
// malformed payloads or unknown event types.
var ErrUndeliverable = errors.New("undeliverable outbox event")

// OrderLoader loads an order with everything a notification renders.
type OrderLoader interface {
	LoadOrder(ctx context.Context, orderID uint) (*models.Order, error)
}

type lowStockSource interface {
	LowStock(ctx context.Context, location *enums.Location) ([]models.InventoryItem, error)
}

type activityWriter interface {
	Record(ctx context.Context, entry activity.Entry)
}

// Repository loads orders for rendering.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoadOrder returns a typed NOT_FOUND when the order was deleted before the
// event was dispatched, so the dispatcher dead-letters it without retrying.
func (r *Repository) LoadOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("id ASC") }).
		Preload("Items.MenuItem").
		Preload("User").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, db.MapError(err, "order")
	}
	return &order, nil
}

// DispatcherParams wires the dispatcher. Chat and Webhook are optional.
type DispatcherParams struct {
	Orders    OrderLoader
	Inventory lowStockSource
	Email     EmailSender
	Chat      ChatPoster
	Webhook   WebhookPoster
	Activity  activityWriter
	Config    config.NotificationsConfig
	Metrics   *metrics.DispatchMetrics
	Logger    *logger.Logger
}

// Dispatcher turns outbox events into email, chat and webhook deliveries.
// Channel failures are logged and recorded, never retried.
type Dispatcher struct {
	orders    OrderLoader
	inventory lowStockSource
	email     EmailSender
	chat      ChatPoster
	webhook   WebhookPoster
	activity  activityWriter
	cfg       config.NotificationsConfig
	metrics   *metrics.DispatchMetrics
	logg      *logger.Logger
}

func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order loader required")
	}
	if params.Email == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity writer required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{
		orders:    params.Orders,
		inventory: params.Inventory,
		email:     params.Email,
		chat:      params.Chat,
		webhook:   params.Webhook,
		activity:  params.Activity,
		cfg:       params.Config,
		metrics:   params.Metrics,
		logg:      logg,
	}, nil
}

// HandleEvent routes one outbox row. A returned error means the event could
// not be processed at all and should count as a failed attempt.
func (d *Dispatcher) HandleEvent(ctx context.Context, event models.OutboxEvent) error {
	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	switch event.EventType {
	case enums.EventNotificationRequested:
		payload, err := outbox.DecodeNotification(envelope)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUndeliverable, err)
		}
		return d.Dispatch(ctx, payload.OrderID, payload.NotificationType)
	case enums.EventLowStockDigest:
		payload, err := outbox.DecodeLowStockDigest(envelope)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUndeliverable, err)
		}
		return d.SendLowStockDigest(ctx, payload.Location)
	default:
		return fmt.Errorf("%w: unsupported event type %q", ErrUndeliverable, event.EventType)
	}
}

// Dispatch delivers one order notification on every channel the type uses.
func (d *Dispatcher) Dispatch(ctx context.Context, orderID uint, kind enums.NotificationType) error {
	order, err := d.orders.LoadOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}
	ctx = d.logg.WithOrderID(ctx, orderID)
	ctx = d.logg.WithField(ctx, "notification_type", kind)

	rendered, err := RenderOrder(kind, order, d.cfg.PublicBaseURL)
	if err != nil {
		return err
	}

	var failures error
	for _, recipient := range Recipients(kind, order, d.cfg) {
		sendErr := d.email.Send(ctx, Email{
			To:      recipient,
			Subject: rendered.Subject,
			HTML:    rendered.HTML,
			Text:    rendered.Text,
		})
		d.observe(ctx, order.ID, kind, ChannelEmail, recipient.Email, recipient.Audience, sendErr)
		failures = multierr.Append(failures, sendErr)
	}

	if kind.ForwardsToWebhook() {
		if d.webhook != nil {
			postErr := d.webhook.PostOrder(ctx, kind, order)
			d.observe(ctx, order.ID, kind, ChannelZapier, "", "", postErr)
			failures = multierr.Append(failures, postErr)
		}
		if d.chat != nil {
			postErr := d.chat.PostOrder(ctx, kind, order)
			d.observe(ctx, order.ID, kind, ChannelSlack, "", "", postErr)
			failures = multierr.Append(failures, postErr)
		}
	}

	if failures != nil {
		logCtx := d.logg.WithField(ctx, "failed_channels", len(multierr.Errors(failures)))
		d.logg.Error(logCtx, "notifications.delivery_failed", failures)
		return nil
	}
	d.logg.Info(ctx, "notifications.dispatched")
	return nil
}

// SendLowStockDigest emails operations the low stock list for a kitchen.
// Nothing is sent when no item is low.
func (d *Dispatcher) SendLowStockDigest(ctx context.Context, location enums.Location) error {
	if d.inventory == nil {
		return fmt.Errorf("inventory source not configured")
	}
	items, err := d.inventory.LowStock(ctx, &location)
	if err != nil {
		return fmt.Errorf("load low stock: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	rendered, err := RenderLowStock(location, items)
	if err != nil {
		return err
	}
	recipient := Recipient{Email: d.cfg.OperationsEmail, Name: "Operations", Audience: AudienceOperations}
	sendErr := d.email.Send(ctx, Email{To: recipient, Subject: rendered.Subject, HTML: rendered.HTML, Text: rendered.Text})
	d.metrics.ObserveDelivery(ChannelEmail, sendErr)
	if sendErr != nil {
		logCtx := d.logg.WithField(ctx, "location", location)
		d.logg.Error(logCtx, "notifications.low_stock_digest_failed", sendErr)
	}
	return nil
}

func (d *Dispatcher) observe(ctx context.Context, orderID uint, kind enums.NotificationType, channel, to, audience string, err error) {
	d.metrics.ObserveDelivery(channel, err)

	details := map[string]any{
		"channel": channel,
		"type":    kind,
	}
	if to != "" {
		details["recipient"] = to
		details["audience"] = audience
	}
	action := activity.ActionNotificationSent
	if err != nil {
		action = activity.ActionNotificationFailed
		details["error"] = err.Error()
		logCtx := d.logg.WithFields(ctx, map[string]any{"channel": channel, "recipient": to})
		d.logg.Warn(logCtx, "notifications.channel_failed")
	}
	id := orderID
	d.activity.Record(ctx, activity.Entry{
		Action:     action,
		EntityType: activity.EntityOrder,
		EntityID:   &id,
		Details:    details,
	})
}
