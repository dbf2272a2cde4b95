package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

// envelopeVersion is bumped when PayloadEnvelope changes shape.
const envelopeVersion = 1

var (
	ErrTxRequired       = errors.New("outbox: transaction required")
	ErrUnknownEventType = errors.New("outbox: unknown event type")
)

// DomainEvent is a side effect requested by a domain write. The aggregate
// type follows from EventType.
type DomainEvent struct {
	EventType   enums.OutboxEventType
	AggregateID uint
	Actor       *ActorRef
	Data        any
}

// Service queues outbox rows. Domain services hold it behind their own
// narrow interfaces.
type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit writes the event inside tx; it commits or rolls back with the write
// that caused it.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return ErrTxRequired
	}
	aggregate := event.EventType.Aggregate()
	if aggregate == "" {
		return fmt.Errorf("%w: %q", ErrUnknownEventType, event.EventType)
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("outbox: encode %s data: %w", event.EventType, err)
	}
	envelope := PayloadEnvelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: s.now().UTC(),
		Actor:      event.Actor,
		Data:       data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("outbox: encode envelope: %w", err)
	}

	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: aggregate,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("outbox: insert %s: %w", event.EventType, err)
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"outbox_id":    row.ID.String(),
			"event_id":     envelope.EventID,
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID,
		}), "outbox.queued")
	}
	return nil
}

// EmitNotification queues a notification about an order.
func (s *Service) EmitNotification(ctx context.Context, tx *gorm.DB, orderID uint, kind enums.NotificationType, actor *ActorRef) error {
	return s.Emit(ctx, tx, DomainEvent{
		EventType:   enums.EventNotificationRequested,
		AggregateID: orderID,
		Actor:       actor,
		Data:        NotificationRequested{OrderID: orderID, NotificationType: kind},
	})
}

// EmitLowStockDigest queues the low stock mail for one kitchen. The digest
// spans many items, so it has no aggregate id.
func (s *Service) EmitLowStockDigest(ctx context.Context, tx *gorm.DB, location enums.Location, itemCount int) error {
	return s.Emit(ctx, tx, DomainEvent{
		EventType: enums.EventLowStockDigest,
		Data:      LowStockDigest{Location: location, ItemCount: itemCount},
	})
}
