package notifications

import (
	"context"
	"fmt"
	"strconv"

	"github.com/slack-go/slack"

	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// ChatPoster forwards order events to the operations chat.
type ChatPoster interface {
	PostOrder(ctx context.Context, kind enums.NotificationType, order *models.Order) error
}

// SlackPoster posts to a Slack incoming webhook.
type SlackPoster struct {
	webhookURL string
	channel    string
	post       func(ctx context.Context, url string, msg *slack.WebhookMessage) error
}

// NewSlackPoster returns nil when no webhook is configured.
func NewSlackPoster(cfg config.SlackConfig) *SlackPoster {
	if cfg.WebhookURL == "" {
		return nil
	}
	return &SlackPoster{webhookURL: cfg.WebhookURL, channel: cfg.Channel, post: slack.PostWebhookContext}
}

func (p *SlackPoster) PostOrder(ctx context.Context, kind enums.NotificationType, order *models.Order) error {
	if err := p.post(ctx, p.webhookURL, SlackMessage(kind, order, p.channel)); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// SlackMessage builds the webhook payload for an order event.
func SlackMessage(kind enums.NotificationType, order *models.Order, channel string) *slack.WebhookMessage {
	color := "#2eb886"
	switch kind {
	case enums.NotificationOrderCancelled:
		color = "#d50200"
	case enums.NotificationOrderUpdated:
		color = "#3aa3e3"
	}
	return &slack.WebhookMessage{
		Channel: channel,
		Text:    subjectFor(kind, order),
		Attachments: []slack.Attachment{{
			Color: color,
			Fields: []slack.AttachmentField{
				{Title: "Flight", Value: order.FlightNumber, Short: true},
				{Title: "Kitchen", Value: order.Location.DisplayName(), Short: true},
				{Title: "Departure", Value: order.DepartureTime.UTC().Format("02 Jan 15:04 MST"), Short: true},
				{Title: "Status", Value: statusLabel(order.Status), Short: true},
				{Title: "Items", Value: strconv.Itoa(len(order.Items)), Short: true},
				{Title: "Total", Value: FormatEuro(order.TotalPriceCents), Short: true},
			},
		}},
	}
}
