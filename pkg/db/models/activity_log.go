package models

import (
	"encoding/json"
	"time"
)

// ActivityLog is a free-form audit entry.
type ActivityLog struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     *uint           `gorm:"column:user_id;index" json:"userId,omitempty"`
	Action     string          `gorm:"column:action;not null;index" json:"action"`
	EntityType string          `gorm:"column:entity_type;not null" json:"entityType"`
	EntityID   *uint           `gorm:"column:entity_id" json:"entityId,omitempty"`
	Details    json.RawMessage `gorm:"column:details;type:jsonb" json:"details,omitempty"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}
