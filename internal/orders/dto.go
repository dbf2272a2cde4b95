package orders

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// Actor is the caller of an order operation. A zero UserID means the request
// was unauthenticated.
type Actor struct {
	UserID uint
	Name   string
	Role   enums.UserRole
}

// Authenticated reports whether the actor carries a user identity.
func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// IsStaff reports whether the actor is admin or kitchen.
func (a Actor) IsStaff() bool {
	return a.Authenticated() && a.Role.IsStaff()
}

// ItemInput is one requested order line. A nil UnitPriceCents takes the menu
// price for the order's kitchen.
type ItemInput struct {
	MenuItemID          uint
	Quantity            int
	UnitPriceCents      *int64
	SpecialInstructions *string
}

// CreateOrderInput carries the flight and delivery details of a new order.
type CreateOrderInput struct {
	FlightNumber        string
	Airline             string
	AircraftType        string
	DepartureAirport    string
	DepartureTime       time.Time
	Location            string
	DeliveryAddress     string
	PassengerCount      int
	CrewCount           int
	ContactName         string
	ContactEmail        string
	ContactPhone        string
	SpecialInstructions *string
	DeliveryFeeCents    int64
	Items               []ItemInput
}

// UpdateOrderInput is a partial update. Nil fields are left untouched.
type UpdateOrderInput struct {
	FlightNumber        *string
	Airline             *string
	AircraftType        *string
	DepartureAirport    *string
	DepartureTime       *time.Time
	DeliveryAddress     *string
	PassengerCount      *int
	CrewCount           *int
	ContactName         *string
	ContactEmail        *string
	ContactPhone        *string
	SpecialInstructions *string
	DeliveryFeeCents    *int64
	Status              *string
	Notes               *string
}

// ListFilters narrows the order list. Status and Kitchen only apply to staff.
type ListFilters struct {
	Status  *enums.OrderStatus
	Kitchen *enums.Location
	Limit   int
	Cursor  string
}

// listQuery is the repository view of ListFilters.
type listQuery struct {
	UserID  *uint
	Status  *enums.OrderStatus
	Kitchen *enums.Location
	Limit   int
}

// StatusView is returned by the status endpoints.
type StatusView struct {
	OrderID       uint                        `json:"orderId"`
	OrderNumber   string                      `json:"orderNumber"`
	Status        enums.OrderStatus           `json:"status"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
	StatusHistory []models.OrderStatusHistory `json:"statusHistory"`
}
