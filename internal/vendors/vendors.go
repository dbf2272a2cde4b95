// Package vendors manages the supplier directory used by inventory and
// purchase orders.
package vendors

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
)

// Input creates a vendor.
type Input struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	Address     string
	Category    string
	Notes       *string
}

// Update is a partial vendor update.
type Update struct {
	Name        *string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
	Category    *string
	Notes       *string
	IsActive    *bool
}

// Filters narrows the vendor list.
type Filters struct {
	Category   string
	ActiveOnly bool
}

// Repository persists vendors.
type Repository interface {
	Create(ctx context.Context, vendor *models.Vendor) error
	FindByID(ctx context.Context, id uint) (*models.Vendor, error)
	List(ctx context.Context, filters Filters) ([]models.Vendor, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) List(ctx context.Context, filters Filters) ([]models.Vendor, error) {
	q := r.db.WithContext(ctx).Model(&models.Vendor{})
	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if filters.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.Vendor
	err := q.Order("name ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Vendor{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Service exposes vendor CRUD.
type Service struct {
	repo Repository
}

func NewService(repo Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) List(ctx context.Context, filters Filters) ([]models.Vendor, error) {
	filters.Category = strings.TrimSpace(filters.Category)
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, db.MapError(err, "vendors")
	}
	return rows, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Vendor, error) {
	vendor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, "vendor")
	}
	return vendor, nil
}

func (s *Service) Create(ctx context.Context, input Input) (*models.Vendor, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	vendor := &models.Vendor{
		Name:        name,
		ContactName: strings.TrimSpace(input.ContactName),
		Email:       email,
		Phone:       strings.TrimSpace(input.Phone),
		Address:     strings.TrimSpace(input.Address),
		Category:    strings.TrimSpace(input.Category),
		Notes:       input.Notes,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, vendor); err != nil {
		return nil, db.MapError(err, "vendor")
	}
	return vendor, nil
}

func (s *Service) Update(ctx context.Context, id uint, input Update) (*models.Vendor, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	setTrimmed(updates, "contact_name", input.ContactName)
	setTrimmed(updates, "phone", input.Phone)
	setTrimmed(updates, "address", input.Address)
	setTrimmed(updates, "category", input.Category)
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, db.MapError(err, "vendor")
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return db.MapError(s.repo.Delete(ctx, id), "vendor")
}

func setTrimmed(updates map[string]any, column string, value *string) {
	if value != nil {
		updates[column] = strings.TrimSpace(*value)
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", nil
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid email")
	}
	return email, nil
}
