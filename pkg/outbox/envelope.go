package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uint           `json:"userId"`
	Role   enums.UserRole `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// NotificationRequested asks the dispatcher to notify about an order.
type NotificationRequested struct {
	OrderID          uint                   `json:"orderId"`
	NotificationType enums.NotificationType `json:"notificationType"`
}

// LowStockDigest asks the dispatcher to mail the low stock summary of a kitchen.
type LowStockDigest struct {
	Location  enums.Location `json:"location"`
	ItemCount int            `json:"itemCount"`
}

// DecodeEnvelope unmarshals a stored payload.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope.Data) == 0 {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: empty data")
	}
	return envelope, nil
}

// DecodeNotification extracts a NotificationRequested from an envelope.
func DecodeNotification(envelope PayloadEnvelope) (NotificationRequested, error) {
	var payload NotificationRequested
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return NotificationRequested{}, fmt.Errorf("decode notification: %w", err)
	}
	if payload.OrderID == 0 {
		return NotificationRequested{}, fmt.Errorf("decode notification: order id required")
	}
	if !payload.NotificationType.IsValid() {
		return NotificationRequested{}, fmt.Errorf("decode notification: invalid type %q", payload.NotificationType)
	}
	return payload, nil
}

// DecodeLowStockDigest extracts a LowStockDigest from an envelope.
func DecodeLowStockDigest(envelope PayloadEnvelope) (LowStockDigest, error) {
	var payload LowStockDigest
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return LowStockDigest{}, fmt.Errorf("decode low stock digest: %w", err)
	}
	if !payload.Location.IsValid() {
		return LowStockDigest{}, fmt.Errorf("decode low stock digest: invalid location %q", payload.Location)
	}
	return payload, nil
}
