package models

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// PaymentRecord mirrors a Stripe PaymentIntent created for an order.
type PaymentRecord struct {
	ID                    uint                `gorm:"primaryKey" json:"id"`
	OrderID               uint                `gorm:"column:order_id;not null;index" json:"orderId"`
	StripePaymentIntentID string              `gorm:"column:stripe_payment_intent_id;not null;uniqueIndex" json:"stripePaymentIntentId"`
	AmountCents           int64               `gorm:"column:amount_cents;not null" json:"amountCents"`
	Currency              string              `gorm:"column:currency;not null" json:"currency"`
	Status                enums.PaymentStatus `gorm:"column:status;type:text;not null" json:"status"`
	FailureMessage        *string             `gorm:"column:failure_message" json:"failureMessage,omitempty"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
