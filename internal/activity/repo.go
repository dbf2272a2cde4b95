package activity

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

// Repository persists activity rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, query ListQuery, cursor *pagination.Cursor) ([]models.ActivityLog, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, query ListQuery, cursor *pagination.Cursor) ([]models.ActivityLog, error) {
	q := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	if query.EntityType != "" {
		q = q.Where("entity_type = ?", query.EntityType)
	}
	if query.EntityID != nil {
		q = q.Where("entity_id = ?", *query.EntityID)
	}
	if query.Action != "" {
		q = q.Where("action = ?", query.Action)
	}
	var rows []models.ActivityLog
	err := q.Scopes(pagination.Scope(cursor, query.Limit)).Find(&rows).Error
	return rows, err
}
