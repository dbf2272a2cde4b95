package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/aerogourmet-backend/internal/orders"
	"github.com/angelmondragon/aerogourmet-backend/pkg/config"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
)

type stubOrderReader struct {
	order *models.Order
	err   error
	actor orders.Actor
}

func (s *stubOrderReader) GetOrder(_ context.Context, actor orders.Actor, _ uint) (*models.Order, error) {
	s.actor = actor
	return s.order, s.err
}

func fixtureOrder(location enums.Location) *models.Order {
	return &models.Order{
		ID:               12,
		OrderNumber:      "ORD-20260314-0001",
		Location:         location,
		DeliveryFeeCents: 15000,
		Items: []models.OrderItem{
			{MenuItemID: 1, Quantity: 2, UnitPriceCents: 2000, MenuItem: &models.MenuItem{Name: "Mezze platter"}},
			{MenuItemID: 2, Quantity: 1, UnitPriceCents: 1000},
		},
	}
}

func testConfig() config.InvoiceConfig {
	return config.InvoiceConfig{VATThessaloniki: "0.24", VATMykonos: "0.13"}
}

func TestComputeAppliesLocationVAT(t *testing.T) {
	issued := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	cfg := testConfig()

	mykonos := Compute(fixtureOrder(enums.LocationMykonos), cfg.VATRate("mykonos"), issued)
	require.Equal(t, int64(5000), mykonos.SubtotalCents)
	require.Equal(t, int64(20000), mykonos.NetCents)
	require.Equal(t, int64(2600), mykonos.VATCents)
	require.Equal(t, int64(22600), mykonos.GrossCents)
	require.Equal(t, "0.13", mykonos.VATRate)
	require.Equal(t, "EUR", mykonos.Currency)
	require.Len(t, mykonos.Lines, 2)
	require.Equal(t, "Mezze platter", mykonos.Lines[0].Description)
	require.Equal(t, int64(4000), mykonos.Lines[0].LineTotalCents)

	thess := Compute(fixtureOrder(enums.LocationThessaloniki), cfg.VATRate("thessaloniki"), issued)
	require.Equal(t, int64(4800), thess.VATCents)
	require.Equal(t, int64(24800), thess.GrossCents)
}

func TestVATCentsRoundsHalfUp(t *testing.T) {
	rate := decimal.RequireFromString("0.13")
	require.Equal(t, int64(7), VATCents(50, rate))
	require.Equal(t, int64(1), VATCents(5, rate))
	require.Equal(t, int64(0), VATCents(3, rate))
	require.Equal(t, int64(0), VATCents(0, rate))
}

func TestForOrderUsesOrderVisibility(t *testing.T) {
	reader := &stubOrderReader{order: fixtureOrder(enums.LocationMykonos)}
	svc, err := NewService(reader, testConfig(), func() time.Time { return time.Unix(0, 0) })
	require.NoError(t, err)

	actor := orders.Actor{UserID: 3, Role: enums.UserRoleClient}
	inv, err := svc.ForOrder(context.Background(), actor, 12)
	require.NoError(t, err)
	require.Equal(t, actor, reader.actor)
	require.Equal(t, int64(22600), inv.GrossCents)

	reader.order, reader.err = nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	_, err = svc.ForOrder(context.Background(), actor, 12)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}
