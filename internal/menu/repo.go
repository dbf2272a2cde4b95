package menu

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
)

// Repository persists menu items and their recipes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.MenuItem) error
	FindByID(ctx context.Context, id uint) (*models.MenuItem, error)
	List(ctx context.Context, filters Filters) ([]models.MenuItem, error)
	Update(ctx context.Context, id uint, updates map[string]any) error
	Delete(ctx context.Context, id uint) error
	Ingredients(ctx context.Context, menuItemID uint) ([]models.MenuItemIngredient, error)
	ReplaceIngredients(ctx context.Context, menuItemID uint, rows []models.MenuItemIngredient) error
	CountInventoryItems(ctx context.Context, ids []uint) (int64, error)
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

func (r *repository) Create(ctx context.Context, item *models.MenuItem) error {
	available := item.Available
	if err := r.db.WithContext(ctx).Omit("Ingredients").Create(item).Error; err != nil {
		return err
	}
	// available defaults to true in the schema, so false needs an explicit write.
	if !available {
		item.Available = false
		return r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", item.ID).Update("available", false).Error
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, filters Filters) ([]models.MenuItem, error) {
	q := r.db.WithContext(ctx).Model(&models.MenuItem{})
	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if filters.Available != nil {
		q = q.Where("available = ?", *filters.Available)
	}
	var rows []models.MenuItem
	err := q.Order("category ASC, name ASC, id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.MenuItem{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("menu_item_id = ?", id).Delete(&models.MenuItemIngredient{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MenuItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Ingredients(ctx context.Context, menuItemID uint) ([]models.MenuItemIngredient, error) {
	var rows []models.MenuItemIngredient
	err := r.db.WithContext(ctx).Where("menu_item_id = ?", menuItemID).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) ReplaceIngredients(ctx context.Context, menuItemID uint, rows []models.MenuItemIngredient) error {
	if err := r.db.WithContext(ctx).Where("menu_item_id = ?", menuItemID).Delete(&models.MenuItemIngredient{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) CountInventoryItems(ctx context.Context, ids []uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
