package models

import (
	"time"

	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
)

// User is an account that can place orders or operate the back office.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"column:password_hash;not null" json:"-"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	Phone        *string        `gorm:"column:phone" json:"phone,omitempty"`
	Company      *string        `gorm:"column:company" json:"company,omitempty"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'client'" json:"role"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true" json:"isActive"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
