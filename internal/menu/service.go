package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the catalog and per item recipes.
type Service interface {
	List(ctx context.Context, filters Filters) ([]models.MenuItem, error)
	Get(ctx context.Context, id uint) (*models.MenuItem, error)
	Create(ctx context.Context, input ItemInput) (*models.MenuItem, error)
	Update(ctx context.Context, id uint, input ItemUpdate) (*models.MenuItem, error)
	Delete(ctx context.Context, id uint) error
	Ingredients(ctx context.Context, id uint) ([]models.MenuItemIngredient, error)
	ReplaceIngredients(ctx context.Context, id uint, lines []IngredientInput) ([]models.MenuItemIngredient, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, filters Filters) ([]models.MenuItem, error) {
	filters.Category = strings.TrimSpace(filters.Category)
	rows, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, db.MapError(err, "menu items")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.MapError(err, "menu item")
	}
	return item, nil
}

func (s *service) Create(ctx context.Context, input ItemInput) (*models.MenuItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if input.PriceThessalonikiCents < 0 || input.PriceMykonosCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
	}
	item := &models.MenuItem{
		Name:                   name,
		Description:            strings.TrimSpace(input.Description),
		Category:               category,
		PriceThessalonikiCents: input.PriceThessalonikiCents,
		PriceMykonosCents:      input.PriceMykonosCents,
		DietaryTags:            normalizeTags(input.DietaryTags),
		Available:              input.Available,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, db.MapError(err, "menu item")
	}
	return item, nil
}

func (s *service) Update(ctx context.Context, id uint, input ItemUpdate) (*models.MenuItem, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if category == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category must not be empty")
		}
		updates["category"] = category
	}
	if input.PriceThessalonikiCents != nil {
		if *input.PriceThessalonikiCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
		}
		updates["price_thessaloniki_cents"] = *input.PriceThessalonikiCents
	}
	if input.PriceMykonosCents != nil {
		if *input.PriceMykonosCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices must not be negative")
		}
		updates["price_mykonos_cents"] = *input.PriceMykonosCents
	}
	if input.DietaryTags != nil {
		raw, err := json.Marshal(normalizeTags(*input.DietaryTags))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dietaryTags")
		}
		updates["dietary_tags"] = string(raw)
	}
	if input.Available != nil {
		updates["available"] = *input.Available
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, db.MapError(err, "menu item")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return db.MapError(s.repo.WithTx(tx).Delete(ctx, id), "menu item")
	})
}

func (s *service) Ingredients(ctx context.Context, id uint) ([]models.MenuItemIngredient, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.repo.Ingredients(ctx, id)
	if err != nil {
		return nil, db.MapError(err, "menu item ingredients")
	}
	return rows, nil
}

// ReplaceIngredients swaps the whole recipe in one transaction. Duplicate
// inventory items are merged by summing their quantities.
func (s *service) ReplaceIngredients(ctx context.Context, id uint, lines []IngredientInput) ([]models.MenuItemIngredient, error) {
	order := make([]uint, 0, len(lines))
	merged := make(map[uint]models.MenuItemIngredient, len(lines))
	for i, line := range lines {
		if line.InventoryItemID == 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "ingredients[%d].inventoryItemId is required", i)
		}
		if !line.Quantity.IsPositive() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "ingredients[%d].quantity must be positive", i)
		}
		existing, ok := merged[line.InventoryItemID]
		if !ok {
			order = append(order, line.InventoryItemID)
			existing = models.MenuItemIngredient{MenuItemID: id, InventoryItemID: line.InventoryItemID}
		}
		existing.Quantity = existing.Quantity.Add(line.Quantity)
		merged[line.InventoryItemID] = existing
	}
	rows := make([]models.MenuItemIngredient, 0, len(order))
	for _, inventoryID := range order {
		rows = append(rows, merged[inventoryID])
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return db.MapError(err, "menu item")
		}
		if len(order) > 0 {
			count, err := repo.CountInventoryItems(ctx, order)
			if err != nil {
				return db.MapError(err, "inventory items")
			}
			if count != int64(len(order)) {
				return pkgerrors.New(pkgerrors.CodeValidation, "unknown inventory item in ingredients")
			}
		}
		return db.MapError(repo.ReplaceIngredients(ctx, id, rows), "menu item ingredients")
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Ingredients(ctx, id)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
