package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

const orderEmailHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1f2933;">
  <h2 style="color: #0b3d5c;">{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <table cellpadding="4" style="border-collapse: collapse;">
    <tr><td><strong>Order</strong></td><td>{{.Order.OrderNumber}}</td></tr>
    <tr><td><strong>Status</strong></td><td>{{.StatusLabel}}</td></tr>
    <tr><td><strong>Flight</strong></td><td>{{.Order.FlightNumber}}{{if .Order.Airline}} ({{.Order.Airline}}){{end}}</td></tr>
    <tr><td><strong>Departure</strong></td><td>{{.Departure}}{{if .Order.DepartureAirport}} from {{.Order.DepartureAirport}}{{end}}</td></tr>
    <tr><td><strong>Kitchen</strong></td><td>{{.Kitchen}}</td></tr>
    <tr><td><strong>Passengers / crew</strong></td><td>{{.Order.PassengerCount}} / {{.Order.CrewCount}}</td></tr>
    {{- if .Order.ContactName}}
    <tr><td><strong>Contact</strong></td><td>{{.Order.ContactName}} {{.Order.ContactPhone}}</td></tr>
    {{- end}}
  </table>
  {{- if .Lines}}
  <h3>Items</h3>
  <table cellpadding="4" style="border-collapse: collapse;">
    {{- range .Lines}}
    <tr><td>{{.Quantity}} x {{.Name}}</td><td style="text-align: right;">{{.Total}}</td></tr>
    {{- if .Notes}}<tr><td colspan="2"><em>{{.Notes}}</em></td></tr>{{end}}
    {{- end}}
    <tr><td>Delivery fee</td><td style="text-align: right;">{{.DeliveryFee}}</td></tr>
    <tr><td><strong>Total (excl. VAT)</strong></td><td style="text-align: right;"><strong>{{.Total}}</strong></td></tr>
  </table>
  {{- end}}
  {{- if .Order.SpecialInstructions}}
  <p><strong>Special instructions:</strong> {{.Order.SpecialInstructions}}</p>
  {{- end}}
  {{- if .OrderURL}}
  <p><a href="{{.OrderURL}}">View order</a></p>
  {{- end}}
  <p style="font-size: 12px; color: #7b8794;">AeroGourmet flight catering</p>
</body>
</html>`

const lowStockEmailHTML = `<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1f2933;">
  <h2 style="color: #0b3d5c;">Low stock at {{.Kitchen}}</h2>
  <p>{{len .Items}} item(s) are at or below their reorder point.</p>
  <table cellpadding="4" style="border-collapse: collapse;">
    <tr><th align="left">Item</th><th align="right">In stock</th><th align="right">Reorder point</th><th align="right">Ideal</th></tr>
    {{- range .Items}}
    <tr><td>{{.Name}}</td><td align="right">{{.InStock}} {{.Unit}}</td><td align="right">{{.ReorderPoint}}</td><td align="right">{{.IdealStock}}</td></tr>
    {{- end}}
  </table>
</body>
</html>`

var (
	orderTemplate    = template.Must(template.New("order").Parse(orderEmailHTML))
	lowStockTemplate = template.Must(template.New("low_stock").Parse(lowStockEmailHTML))
)

type orderLine struct {
	Quantity int
	Name     string
	Total    string
	Notes    string
}

type orderView struct {
	Heading     string
	Intro       string
	StatusLabel string
	Departure   string
	Kitchen     string
	Order       *models.Order
	Lines       []orderLine
	DeliveryFee string
	Total       string
	OrderURL    string
}

// Rendered is a ready to send email body.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// RenderOrder renders the email for an order notification.
func RenderOrder(kind enums.NotificationType, order *models.Order, baseURL string) (Rendered, error) {
	heading, intro := copyFor(kind, order)
	view := orderView{
		Heading:     heading,
		Intro:       intro,
		StatusLabel: statusLabel(order.Status),
		Departure:   order.DepartureTime.UTC().Format("02 Jan 2006 15:04 MST"),
		Kitchen:     order.Location.DisplayName(),
		Order:       order,
		DeliveryFee: FormatEuro(order.DeliveryFeeCents),
		Total:       FormatEuro(order.TotalPriceCents),
	}
	if base := strings.TrimRight(strings.TrimSpace(baseURL), "/"); base != "" {
		view.OrderURL = fmt.Sprintf("%s/orders/%d", base, order.ID)
	}
	for _, item := range order.Items {
		name := fmt.Sprintf("Menu item #%d", item.MenuItemID)
		if item.MenuItem != nil {
			name = item.MenuItem.Name
		}
		line := orderLine{Quantity: item.Quantity, Name: name, Total: FormatEuro(item.LineTotalCents())}
		if item.SpecialInstructions != nil {
			line.Notes = *item.SpecialInstructions
		}
		view.Lines = append(view.Lines, line)
	}

	var buf bytes.Buffer
	if err := orderTemplate.Execute(&buf, view); err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Rendered{
		Subject: subjectFor(kind, order),
		HTML:    buf.String(),
		Text:    fmt.Sprintf("%s\n\n%s\nOrder %s, flight %s, status %s.", heading, intro, order.OrderNumber, order.FlightNumber, view.StatusLabel),
	}, nil
}

// RenderLowStock renders the low stock digest for one kitchen.
func RenderLowStock(location enums.Location, items []models.InventoryItem) (Rendered, error) {
	var buf bytes.Buffer
	err := lowStockTemplate.Execute(&buf, map[string]any{
		"Kitchen": location.DisplayName(),
		"Items":   items,
	})
	if err != nil {
		return Rendered{}, fmt.Errorf("render low stock: %w", err)
	}
	return Rendered{
		Subject: fmt.Sprintf("[AeroGourmet] %d low stock item(s) at %s", len(items), location.DisplayName()),
		HTML:    buf.String(),
		Text:    fmt.Sprintf("%d item(s) at %s are at or below their reorder point.", len(items), location.DisplayName()),
	}, nil
}

func subjectFor(kind enums.NotificationType, order *models.Order) string {
	switch kind {
	case enums.NotificationNewOrder:
		return fmt.Sprintf("[AeroGourmet] New order %s for flight %s", order.OrderNumber, order.FlightNumber)
	case enums.NotificationOrderReady:
		return fmt.Sprintf("[AeroGourmet] Order %s is ready", order.OrderNumber)
	case enums.NotificationOrderDelivered:
		return fmt.Sprintf("[AeroGourmet] Order %s delivered", order.OrderNumber)
	case enums.NotificationOrderCancelled:
		return fmt.Sprintf("[AeroGourmet] Order %s cancelled", order.OrderNumber)
	default:
		return fmt.Sprintf("[AeroGourmet] Order %s updated", order.OrderNumber)
	}
}

func copyFor(kind enums.NotificationType, order *models.Order) (string, string) {
	departure := order.DepartureTime.UTC().Format(time.RFC1123)
	switch kind {
	case enums.NotificationNewOrder:
		return "New catering order", fmt.Sprintf("A new order was placed for flight %s departing %s.", order.FlightNumber, departure)
	case enums.NotificationOrderReady:
		return "Order ready for delivery", "The order has been prepared and is ready to be collected by the delivery team."
	case enums.NotificationOrderDelivered:
		return "Order delivered", "The order has been delivered to the aircraft. Bon voyage!"
	case enums.NotificationOrderCancelled:
		return "Order cancelled", "The order below has been cancelled."
	default:
		return "Order updated", fmt.Sprintf("The order is now %s.", statusLabel(order.Status))
	}
}

func statusLabel(status enums.OrderStatus) string {
	label := strings.ReplaceAll(string(status), "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// FormatEuro renders cents as "€12.50".
func FormatEuro(cents int64) string {
	return "€" + decimal.New(cents, -2).StringFixed(2)
}
