package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aerogourmet-backend/api/responses"
	"github.com/angelmondragon/aerogourmet-backend/api/validators"
	"github.com/angelmondragon/aerogourmet-backend/internal/menu"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

type menuItemRequest struct {
	Name                   string   `json:"name" validate:"required,max=128"`
	Description            string   `json:"description" validate:"max=2000"`
	Category               string   `json:"category" validate:"required,max=64"`
	PriceThessalonikiCents int64    `json:"priceThessalonikiCents" validate:"gte=0"`
	PriceMykonosCents      int64    `json:"priceMykonosCents" validate:"gte=0"`
	DietaryTags            []string `json:"dietaryTags" validate:"max=16,dive,max=32"`
	Available              *bool    `json:"available"`
}

type menuItemPatch struct {
	Name                   *string   `json:"name" validate:"omitempty,max=128"`
	Description            *string   `json:"description" validate:"omitempty,max=2000"`
	Category               *string   `json:"category" validate:"omitempty,max=64"`
	PriceThessalonikiCents *int64    `json:"priceThessalonikiCents" validate:"omitempty,gte=0"`
	PriceMykonosCents      *int64    `json:"priceMykonosCents" validate:"omitempty,gte=0"`
	DietaryTags            *[]string `json:"dietaryTags"`
	Available              *bool     `json:"available"`
}

type ingredientLine struct {
	InventoryItemID uint            `json:"inventoryItemId" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
}

type ingredientsRequest struct {
	Ingredients []ingredientLine `json:"ingredients" validate:"dive"`
}

// ListMenuItems is public and filters by category and availability.
func ListMenuItems(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		available, err := validators.ParseQueryBool(r, "available")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.List(r.Context(), menu.Filters{
			Category:  strings.TrimSpace(r.URL.Query().Get("category")),
			Available: available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func GetMenuItem(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "menuItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func CreateMenuItem(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body menuItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		available := true
		if body.Available != nil {
			available = *body.Available
		}
		item, err := svc.Create(r.Context(), menu.ItemInput{
			Name:                   validators.SanitizeString(body.Name, 128),
			Description:            validators.SanitizeString(body.Description, 2000),
			Category:               validators.SanitizeString(body.Category, 64),
			PriceThessalonikiCents: body.PriceThessalonikiCents,
			PriceMykonosCents:      body.PriceMykonosCents,
			DietaryTags:            body.DietaryTags,
			Available:              available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UpdateMenuItem(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "menuItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body menuItemPatch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.Update(r.Context(), id, menu.ItemUpdate{
			Name:                   body.Name,
			Description:            body.Description,
			Category:               body.Category,
			PriceThessalonikiCents: body.PriceThessalonikiCents,
			PriceMykonosCents:      body.PriceMykonosCents,
			DietaryTags:            body.DietaryTags,
			Available:              body.Available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func DeleteMenuItem(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "menuItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetMenuItemIngredients(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "menuItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.Ingredients(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ReplaceMenuItemIngredients swaps the whole recipe for a menu item.
func ReplaceMenuItemIngredients(svc menu.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "menuItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body ingredientsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]menu.IngredientInput, 0, len(body.Ingredients))
		for _, line := range body.Ingredients {
			lines = append(lines, menu.IngredientInput{InventoryItemID: line.InventoryItemID, Quantity: line.Quantity})
		}
		rows, err := svc.ReplaceIngredients(r.Context(), id, lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
