package realtime

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// Message types on the wire.
const (
	TypeAuth              = "auth"
	TypeAuthConfirmed     = "authConfirmed"
	TypeOrderStatusUpdate = "orderStatusUpdate"
)

// AuthMessage is the first frame a client must send.
type AuthMessage struct {
	Type   string         `json:"type"`
	UserID uint           `json:"userId"`
	Role   enums.UserRole `json:"role"`
	Token  string         `json:"token,omitempty"`
}

// AuthConfirmed acknowledges a registered connection.
type AuthConfirmed struct {
	Type         string         `json:"type"`
	UserID       uint           `json:"userId"`
	Role         enums.UserRole `json:"role"`
	ConnectionID string         `json:"connectionId"`
}

// OrderStatusUpdate is pushed to every registered connection.
type OrderStatusUpdate struct {
	Type          string                      `json:"type"`
	OrderID       uint                        `json:"orderId"`
	Status        enums.OrderStatus           `json:"status"`
	StatusHistory []models.OrderStatusHistory `json:"statusHistory"`
	Timestamp     time.Time                   `json:"timestamp"`
}
