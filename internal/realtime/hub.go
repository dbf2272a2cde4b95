// Package realtime pushes order status changes to back-office WebSocket
// clients, fanning out across API instances through Redis.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/metrics"
)

const sendBuffer = 16

// Broker carries broadcasts between API instances. *redis.Client satisfies it.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error, error)
}

// HubParams wires a hub. PubSub is optional; without it broadcasts stay local.
type HubParams struct {
	PubSub  Broker
	Channel string
	Metrics *metrics.RealtimeMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

// Hub is the registry of authenticated connections keyed by connection id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client

	pubsub  Broker
	channel string
	metrics *metrics.RealtimeMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewHub(params HubParams) *Hub {
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	channel := params.Channel
	if channel == "" {
		channel = "ag:realtime:orders"
	}
	return &Hub{
		clients: make(map[string]*client),
		pubsub:  params.PubSub,
		channel: channel,
		metrics: params.Metrics,
		logg:    logg,
		now:     now,
	}
}

// Count returns the number of registered connections on this instance.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetConnections(n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	n := len(h.clients)
	h.mu.Unlock()
	c.close()
	if ok {
		h.metrics.SetConnections(n)
		ctx := h.logg.WithField(context.Background(), "connection_id", c.id)
		h.logg.Debug(ctx, "realtime.disconnected")
	}
}

// BroadcastOrderStatus sends an orderStatusUpdate to every registered
// connection, on every instance when Redis is configured.
func (h *Hub) BroadcastOrderStatus(ctx context.Context, orderID uint, status enums.OrderStatus, history []models.OrderStatusHistory) error {
	if history == nil {
		history = []models.OrderStatusHistory{}
	}
	payload, err := json.Marshal(OrderStatusUpdate{
		Type:          TypeOrderStatusUpdate,
		OrderID:       orderID,
		Status:        status,
		StatusHistory: history,
		Timestamp:     h.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode order status update: %w", err)
	}
	if h.pubsub == nil {
		h.deliver(payload)
		return nil
	}
	if err := h.pubsub.Publish(ctx, h.channel, payload); err != nil {
		h.deliver(payload)
		return fmt.Errorf("publish order status update: %w", err)
	}
	return nil
}

// deliver queues payload on every local connection. A connection whose buffer
// is full is dropped.
func (h *Hub) deliver(payload []byte) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- payload:
			h.metrics.IncBroadcast()
		default:
			h.metrics.IncDropped()
			h.unregister(c)
		}
	}
}

// Run relays messages from the Redis channel to local connections until ctx
// ends, resubscribing after connection loss. It returns immediately when no
// PubSub is configured.
func (h *Hub) Run(ctx context.Context) error {
	if h.pubsub == nil {
		return nil
	}
	backoff := 500 * time.Millisecond
	for ctx.Err() == nil {
		messages, closeFn, err := h.pubsub.Subscribe(ctx, h.channel)
		if err != nil {
			h.logg.Error(ctx, "realtime.subscribe_failed", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < 10*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = 500 * time.Millisecond
		h.logg.Info(h.logg.WithField(ctx, "channel", h.channel), "realtime.subscribed")
		for payload := range messages {
			h.deliver(payload)
		}
		_ = closeFn()
	}
	return nil
}

// Close disconnects every local connection.
func (h *Hub) Close() {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.unregister(c)
	}
}
