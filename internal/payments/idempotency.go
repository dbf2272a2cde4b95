package payments

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Marker values stored under a webhook event key.
const (
	markerInFlight = "in_flight"
	markerDone     = "done"
)

// claimTTL bounds how long a crashed delivery keeps an event claimed before
// Stripe's redelivery is allowed through again.
const claimTTL = 2 * time.Minute

var ErrEventIDRequired = errors.New("event id is required")

type markerStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	WebhookEventKey(provider, eventID string) string
}

// EventGuard de-duplicates provider webhook deliveries. An event is claimed
// while its handler runs and marked done for retention once it succeeds.
type EventGuard struct {
	store     markerStore
	provider  string
	retention time.Duration
}

func NewEventGuard(store markerStore, retention time.Duration, provider string) (*EventGuard, error) {
	switch {
	case store == nil:
		return nil, errors.New("marker store is required")
	case provider == "":
		return nil, errors.New("provider is required")
	case retention < claimTTL:
		return nil, fmt.Errorf("retention must be at least %s", claimTTL)
	}
	return &EventGuard{store: store, provider: provider, retention: retention}, nil
}

// CheckAndMark claims eventID. It reports true when the event is already
// claimed or done, in which case the caller must not handle it again.
func (g *EventGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	key, err := g.key(eventID)
	if err != nil {
		return false, err
	}
	claimed, err := g.store.SetNX(ctx, key, markerInFlight, claimTTL)
	if err != nil {
		return false, fmt.Errorf("claim webhook event: %w", err)
	}
	return !claimed, nil
}

// Complete records eventID as handled for the full retention window.
func (g *EventGuard) Complete(ctx context.Context, eventID string) error {
	key, err := g.key(eventID)
	if err != nil {
		return err
	}
	if err := g.store.Set(ctx, key, markerDone, g.retention); err != nil {
		return fmt.Errorf("complete webhook event: %w", err)
	}
	return nil
}

// Release drops the claim so the provider's next delivery is handled.
func (g *EventGuard) Release(ctx context.Context, eventID string) error {
	key, err := g.key(eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *EventGuard) key(eventID string) (string, error) {
	if eventID == "" {
		return "", ErrEventIDRequired
	}
	return g.store.WebhookEventKey(g.provider, eventID), nil
}
