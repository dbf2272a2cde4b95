// Package invoices derives VAT invoices from stored orders. Nothing here is
// persisted: stored order totals stay net and VAT is computed on demand.
package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aerogourmet-backend/internal/orders"
	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// Line is one invoiced order item.
type Line struct {
	MenuItemID     uint   `json:"menuItemId"`
	Description    string `json:"description"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	LineTotalCents int64  `json:"lineTotalCents"`
}

// Invoice is the VAT breakdown of an order. All amounts are euro cents.
type Invoice struct {
	OrderID          uint           `json:"orderId"`
	OrderNumber      string         `json:"orderNumber"`
	Location         enums.Location `json:"location"`
	IssuedAt         time.Time      `json:"issuedAt"`
	Currency         string         `json:"currency"`
	Lines            []Line         `json:"lines"`
	SubtotalCents    int64          `json:"subtotalCents"`
	DeliveryFeeCents int64          `json:"deliveryFeeCents"`
	NetCents         int64          `json:"netCents"`
	VATRate          string         `json:"vatRate"`
	VATCents         int64          `json:"vatCents"`
	GrossCents       int64          `json:"grossCents"`
}

// Compute builds the invoice for an order with its items loaded.
func Compute(order *models.Order, rate decimal.Decimal, issuedAt time.Time) Invoice {
	lines := make([]Line, 0, len(order.Items))
	var subtotal int64
	for _, item := range order.Items {
		description := ""
		if item.MenuItem != nil {
			description = item.MenuItem.Name
		}
		total := item.LineTotalCents()
		subtotal += total
		lines = append(lines, Line{
			MenuItemID:     item.MenuItemID,
			Description:    description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: total,
		})
	}
	net := subtotal + order.DeliveryFeeCents
	vat := VATCents(net, rate)
	return Invoice{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		Location:         order.Location,
		IssuedAt:         issuedAt.UTC(),
		Currency:         "EUR",
		Lines:            lines,
		SubtotalCents:    subtotal,
		DeliveryFeeCents: order.DeliveryFeeCents,
		NetCents:         net,
		VATRate:          rate.StringFixed(2),
		VATCents:         vat,
		GrossCents:       net + vat,
	}
}

// VATCents applies rate to a net amount, rounding half away from zero to the
// cent.
func VATCents(netCents int64, rate decimal.Decimal) int64 {
	euros := decimal.NewFromInt(netCents).Div(hundred)
	vat := euros.Mul(rate).Round(2)
	return vat.Mul(hundred).IntPart()
}

type orderReader interface {
	GetOrder(ctx context.Context, actor orders.Actor, orderID uint) (*models.Order, error)
}

// Service issues invoices for orders the actor may view.
type Service struct {
	orders orderReader
	cfg    config.InvoiceConfig
	now    func() time.Time
}

func NewService(reader orderReader, cfg config.InvoiceConfig, now func() time.Time) (*Service, error) {
	if reader == nil {
		return nil, errors.New("order reader required")
	}
	if now == nil {
		now = time.Now
	}
	return &Service{orders: reader, cfg: cfg, now: now}, nil
}

// ForOrder loads the order through the order service, so visibility rules
// match GET /orders/:id.
func (s *Service) ForOrder(ctx context.Context, actor orders.Actor, orderID uint) (Invoice, error) {
	order, err := s.orders.GetOrder(ctx, actor, orderID)
	if err != nil {
		return Invoice{}, err
	}
	return Compute(order, s.cfg.VATRate(string(order.Location)), s.now()), nil
}
