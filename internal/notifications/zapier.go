package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// WebhookPoster forwards order events to the automation webhook.
type WebhookPoster interface {
	PostOrder(ctx context.Context, kind enums.NotificationType, order *models.Order) error
}

// ZapierPayload is the JSON body posted to the Zapier catch hook.
type ZapierPayload struct {
	Event           enums.NotificationType `json:"event"`
	OrderID         uint                   `json:"orderId"`
	OrderNumber     string                 `json:"orderNumber"`
	Status          enums.OrderStatus      `json:"status"`
	FlightNumber    string                 `json:"flightNumber"`
	Airline         string                 `json:"airline,omitempty"`
	DepartureTime   time.Time              `json:"departureTime"`
	Location        enums.Location         `json:"location"`
	ContactName     string                 `json:"contactName,omitempty"`
	ContactEmail    string                 `json:"contactEmail,omitempty"`
	PassengerCount  int                    `json:"passengerCount"`
	TotalPriceCents int64                  `json:"totalPriceCents"`
	Items           []ZapierItem           `json:"items"`
}

// ZapierItem is one order line in the webhook payload.
type ZapierItem struct {
	MenuItemID     uint   `json:"menuItemId"`
	Name           string `json:"name,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

// ZapierPoster posts order events as JSON.
type ZapierPoster struct {
	url    string
	client *http.Client
}

// NewZapierPoster returns nil when no webhook is configured.
func NewZapierPoster(cfg config.ZapierConfig) *ZapierPoster {
	if cfg.WebhookURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ZapierPoster{url: cfg.WebhookURL, client: &http.Client{Timeout: timeout}}
}

func (z *ZapierPoster) PostOrder(ctx context.Context, kind enums.NotificationType, order *models.Order) error {
	body, err := json.Marshal(NewZapierPayload(kind, order))
	if err != nil {
		return fmt.Errorf("zapier payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("zapier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("zapier post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("zapier post: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func NewZapierPayload(kind enums.NotificationType, order *models.Order) ZapierPayload {
	payload := ZapierPayload{
		Event:           kind,
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		FlightNumber:    order.FlightNumber,
		Airline:         order.Airline,
		DepartureTime:   order.DepartureTime.UTC(),
		Location:        order.Location,
		ContactName:     order.ContactName,
		ContactEmail:    order.ContactEmail,
		PassengerCount:  order.PassengerCount,
		TotalPriceCents: order.TotalPriceCents,
		Items:           make([]ZapierItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		line := ZapierItem{MenuItemID: item.MenuItemID, Quantity: item.Quantity, UnitPriceCents: item.UnitPriceCents}
		if item.MenuItem != nil {
			line.Name = item.MenuItem.Name
		}
		payload.Items = append(payload.Items, line)
	}
	return payload
}
