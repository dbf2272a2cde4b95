package models

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// ConciergeRequest is a client ticket for services outside the menu.
type ConciergeRequest struct {
	ID              uint                  `gorm:"primaryKey" json:"id"`
	UserID          uint                  `gorm:"column:user_id;not null;index" json:"userId"`
	OrderID         *uint                 `gorm:"column:order_id" json:"orderId,omitempty"`
	RequestType     string                `gorm:"column:request_type;not null" json:"requestType"`
	Description     string                `gorm:"column:description;not null" json:"description"`
	Status          enums.ConciergeStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	AdminPriceCents *int64                `gorm:"column:admin_price_cents" json:"adminPriceCents,omitempty"`
	AdminNotes      *string               `gorm:"column:admin_notes" json:"adminNotes,omitempty"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
