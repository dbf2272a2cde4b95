package models

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// Order is a catering order for a single flight. Money is in euro cents.
type Order struct {
	ID                  uint                 `gorm:"primaryKey" json:"id"`
	OrderNumber         string               `gorm:"column:order_number;not null;uniqueIndex" json:"orderNumber"`
	UserID              uint                 `gorm:"column:user_id;not null;index" json:"userId"`
	FlightNumber        string               `gorm:"column:flight_number;not null" json:"flightNumber"`
	Airline             string               `gorm:"column:airline" json:"airline"`
	AircraftType        string               `gorm:"column:aircraft_type" json:"aircraftType"`
	DepartureAirport    string               `gorm:"column:departure_airport" json:"departureAirport"`
	DepartureTime       time.Time            `gorm:"column:departure_time;not null" json:"departureTime"`
	Location            enums.Location       `gorm:"column:location;type:text;not null;index" json:"location"`
	DeliveryAddress     string               `gorm:"column:delivery_address" json:"deliveryAddress"`
	PassengerCount      int                  `gorm:"column:passenger_count;not null;default:1" json:"passengerCount"`
	CrewCount           int                  `gorm:"column:crew_count;not null;default:0" json:"crewCount"`
	ContactName         string               `gorm:"column:contact_name" json:"contactName"`
	ContactEmail        string               `gorm:"column:contact_email" json:"contactEmail"`
	ContactPhone        string               `gorm:"column:contact_phone" json:"contactPhone"`
	SpecialInstructions *string              `gorm:"column:special_instructions" json:"specialInstructions,omitempty"`
	Status              enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending';index" json:"status"`
	PaymentStatus       enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'unpaid'" json:"paymentStatus"`
	DeliveryFeeCents    int64                `gorm:"column:delivery_fee_cents;not null;default:0" json:"deliveryFeeCents"`
	TotalPriceCents     int64                `gorm:"column:total_price_cents;not null;default:0" json:"totalPriceCents"`
	Items               []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	StatusHistory       []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"statusHistory,omitempty"`
	User                *User                `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	// UpdatedAt is stamped by the order service so it strictly increases.
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt"`
}

// ItemsSubtotalCents sums quantity x unit price over the loaded items.
func (o *Order) ItemsSubtotalCents() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.LineTotalCents()
	}
	return total
}

// OrderItem is one menu line on an order with the price captured at order time.
type OrderItem struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	OrderID             uint      `gorm:"column:order_id;not null;index" json:"orderId"`
	MenuItemID          uint      `gorm:"column:menu_item_id;not null" json:"menuItemId"`
	Quantity            int       `gorm:"column:quantity;not null" json:"quantity"`
	UnitPriceCents      int64     `gorm:"column:unit_price_cents;not null" json:"unitPriceCents"`
	SpecialInstructions *string   `gorm:"column:special_instructions" json:"specialInstructions,omitempty"`
	MenuItem            *MenuItem `gorm:"foreignKey:MenuItemID" json:"menuItem,omitempty"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// LineTotalCents is quantity x unit price.
func (i OrderItem) LineTotalCents() int64 {
	return int64(i.Quantity) * i.UnitPriceCents
}

// OrderStatusHistory is one append-only status transition.
type OrderStatusHistory struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	OrderID     uint              `gorm:"column:order_id;not null;index" json:"orderId"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null" json:"status"`
	Notes       *string           `gorm:"column:notes" json:"notes,omitempty"`
	ActorUserID *uint             `gorm:"column:actor_user_id" json:"actorUserId,omitempty"`
	ActorName   string            `gorm:"column:actor_name" json:"actorName"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
