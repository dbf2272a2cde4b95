package activity

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

// Service writes and reads the audit feed.
type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("activity repository required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

// RecordTx writes the entry inside tx. Failures propagate so the caller's
// transaction decides.
func (s *Service) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	row, err := toModel(entry)
	if err != nil {
		return err
	}
	return s.repo.WithTx(tx).Create(ctx, row)
}

// Record writes the entry outside any transaction and only logs failures.
func (s *Service) Record(ctx context.Context, entry Entry) {
	row, err := toModel(entry)
	if err == nil {
		err = s.repo.Create(ctx, row)
	}
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"action":      entry.Action,
			"entity_type": entry.EntityType,
		})
		s.logg.Error(logCtx, "activity.record_failed", err)
	}
}

// List returns the newest entries first.
func (s *Service) List(ctx context.Context, query ListQuery) (pagination.Page[models.ActivityLog], error) {
	cursor, err := pagination.ParseCursor(query.Cursor)
	if err != nil {
		return pagination.Page[models.ActivityLog]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, query, cursor)
	if err != nil {
		return pagination.Page[models.ActivityLog]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list activity logs")
	}
	return pagination.BuildPage(rows, query.Limit, func(row models.ActivityLog) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	}), nil
}

func toModel(entry Entry) (*models.ActivityLog, error) {
	if entry.Action == "" || entry.EntityType == "" {
		return nil, errors.New("activity action and entity type required")
	}
	row := &models.ActivityLog{
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
	}
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return nil, err
		}
		row.Details = raw
	}
	return row, nil
}
