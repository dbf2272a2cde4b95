package notifications

import (
	"strings"

	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// Audience labels who a recipient is on the activity feed.
const (
	AudienceClient     = "client"
	AudienceOperations = "operations"
	AudienceKitchen    = "kitchen"
	AudienceDelivery   = "delivery"
)

// guestEmailDomain marks the sentinel guest account, which has no inbox.
const guestEmailDomain = "@aerogourmet.local"

// Recipient is one email destination.
type Recipient struct {
	Email    string
	Name     string
	Audience string
}

// Recipients resolves who hears about an order event:
//
//	NEW_ORDER       operations, kitchen
//	ORDER_UPDATED   client, operations
//	ORDER_READY     client, delivery team
//	ORDER_DELIVERED client
//	ORDER_CANCELLED client, operations, kitchen
//
// Blank and duplicate addresses are dropped.
func Recipients(kind enums.NotificationType, order *models.Order, cfg config.NotificationsConfig) []Recipient {
	var out []Recipient
	seen := map[string]struct{}{}
	add := func(email, name, audience string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || strings.HasSuffix(email, guestEmailDomain) {
			return
		}
		if _, ok := seen[email]; ok {
			return
		}
		seen[email] = struct{}{}
		out = append(out, Recipient{Email: email, Name: name, Audience: audience})
	}
	client := func() {
		email, name := clientContact(order)
		add(email, name, AudienceClient)
	}
	operations := func() { add(cfg.OperationsEmail, "Operations", AudienceOperations) }
	kitchen := func() {
		add(cfg.KitchenEmail(string(order.Location)), order.Location.DisplayName()+" kitchen", AudienceKitchen)
	}

	switch kind {
	case enums.NotificationNewOrder:
		operations()
		kitchen()
	case enums.NotificationOrderUpdated:
		client()
		operations()
	case enums.NotificationOrderReady:
		client()
		for _, email := range cfg.DeliveryTeam() {
			add(email, "Delivery team", AudienceDelivery)
		}
	case enums.NotificationOrderDelivered:
		client()
	case enums.NotificationOrderCancelled:
		client()
		operations()
		kitchen()
	}
	return out
}

func clientContact(order *models.Order) (string, string) {
	name := strings.TrimSpace(order.ContactName)
	if email := strings.TrimSpace(order.ContactEmail); email != "" {
		return email, name
	}
	if order.User != nil {
		if name == "" {
			name = order.User.Name
		}
		return order.User.Email, name
	}
	return "", name
}
