// Package concierge handles client requests for services outside the menu
// (flowers, newspapers, special sourcing) and the admin quoting flow.
package concierge

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

// Requester identifies the caller.
type Requester struct {
	UserID uint
	Role   enums.UserRole
}

// CreateInput opens a concierge request.
type CreateInput struct {
	OrderID     *uint
	RequestType string
	Description string
}

// ReviewInput is the admin side update.
type ReviewInput struct {
	Status          *enums.ConciergeStatus
	AdminPriceCents *int64
	AdminNotes      *string
}

// Filters narrows the request list.
type Filters struct {
	Status *enums.ConciergeStatus
	Limit  int
	Cursor string
}

// Repository persists concierge requests.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, req *models.ConciergeRequest) error
	FindByID(ctx context.Context, id uint) (*models.ConciergeRequest, error)
	List(ctx context.Context, userID *uint, filters Filters, cursor *pagination.Cursor) ([]models.ConciergeRequest, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	OrderOwner(ctx context.Context, orderID uint) (uint, error)
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

func (r *repository) Create(ctx context.Context, req *models.ConciergeRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.ConciergeRequest, error) {
	var req models.ConciergeRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) List(ctx context.Context, userID *uint, filters Filters, cursor *pagination.Cursor) ([]models.ConciergeRequest, error) {
	q := r.db.WithContext(ctx).Model(&models.ConciergeRequest{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	var rows []models.ConciergeRequest
	err := q.Scopes(pagination.Scope(cursor, filters.Limit)).Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.ConciergeRequest{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) OrderOwner(ctx context.Context, orderID uint) (uint, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Select("id", "user_id").Where("id = ?", orderID).First(&order).Error; err != nil {
		return 0, err
	}
	return order.UserID, nil
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type activityRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry activity.Entry) error
}

// Service implements the concierge workflow.
type Service struct {
	repo     Repository
	tx       txRunner
	activity activityRecorder
}

func NewService(repo Repository, tx txRunner, recorder activityRecorder) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("concierge repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &Service{repo: repo, tx: tx, activity: recorder}, nil
}

func (s *Service) Create(ctx context.Context, who Requester, input CreateInput) (*models.ConciergeRequest, error) {
	if who.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	kind := strings.TrimSpace(input.RequestType)
	if kind == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requestType is required")
	}
	desc := strings.TrimSpace(input.Description)
	if desc == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	if input.OrderID != nil {
		owner, err := s.repo.OrderOwner(ctx, *input.OrderID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "order not found")
			}
			return nil, db.MapError(err, "order")
		}
		if owner != who.UserID && !who.Role.IsStaff() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}
	}
	req := &models.ConciergeRequest{
		UserID:      who.UserID,
		OrderID:     input.OrderID,
		RequestType: kind,
		Description: desc,
		Status:      enums.ConciergePending,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, db.MapError(err, "concierge request")
	}
	return req, nil
}

func (s *Service) Get(ctx context.Context, who Requester, id uint) (*models.ConciergeRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, "concierge request")
	}
	if req.UserID != who.UserID && !who.Role.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "concierge request not found")
	}
	return req, nil
}

// List returns the caller's own requests, or every request for staff.
func (s *Service) List(ctx context.Context, who Requester, filters Filters) (pagination.Page[models.ConciergeRequest], error) {
	cursor, err := pagination.ParseCursor(filters.Cursor)
	if err != nil {
		return pagination.Page[models.ConciergeRequest]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var scope *uint
	if !who.Role.IsStaff() {
		id := who.UserID
		scope = &id
	}
	rows, err := s.repo.List(ctx, scope, filters, cursor)
	if err != nil {
		return pagination.Page[models.ConciergeRequest]{}, db.MapError(err, "concierge requests")
	}
	return pagination.BuildPage(rows, filters.Limit, func(row models.ConciergeRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	}), nil
}

// Review applies admin changes. A status change writes an activity row.
func (s *Service) Review(ctx context.Context, who Requester, id uint, input ReviewInput) (*models.ConciergeRequest, error) {
	if who.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	updates := map[string]any{}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *input.Status)
		}
		updates["status"] = *input.Status
	}
	if input.AdminPriceCents != nil {
		if *input.AdminPriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adminPrice must not be negative")
		}
		updates["admin_price_cents"] = *input.AdminPriceCents
	}
	if input.AdminNotes != nil {
		updates["admin_notes"] = strings.TrimSpace(*input.AdminNotes)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return db.MapError(err, "concierge request")
		}
		if len(updates) == 0 {
			return nil
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return db.MapError(err, "concierge request")
		}
		if input.Status == nil || *input.Status == current.Status {
			return nil
		}
		actorID := who.UserID
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     &actorID,
			Action:     activity.ActionConciergeUpdated,
			EntityType: activity.EntityConciergeRequest,
			EntityID:   &id,
			Details: map[string]any{
				"from": current.Status,
				"to":   *input.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, "concierge request")
	}
	return req, nil
}
