package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/aerogourmet-backend/api/responses"
	"github.com/angelmondragon/aerogourmet-backend/api/validators"
	"github.com/angelmondragon/aerogourmet-backend/internal/vendors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

type vendorRequest struct {
	Name        string  `json:"name" validate:"required,max=128"`
	ContactName string  `json:"contactName" validate:"max=128"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Phone       string  `json:"phone" validate:"max=32"`
	Address     string  `json:"address" validate:"max=255"`
	Category    string  `json:"category" validate:"max=64"`
	Notes       *string `json:"notes"`
}

type vendorPatch struct {
	Name        *string `json:"name" validate:"omitempty,max=128"`
	ContactName *string `json:"contactName" validate:"omitempty,max=128"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	Category    *string `json:"category" validate:"omitempty,max=64"`
	Notes       *string `json:"notes"`
	IsActive    *bool   `json:"isActive"`
}

// VendorService is the supplier directory surface used by the handlers.
type VendorService interface {
	List(ctx context.Context, filters vendors.Filters) ([]models.Vendor, error)
	Get(ctx context.Context, id uint) (*models.Vendor, error)
	Create(ctx context.Context, input vendors.Input) (*models.Vendor, error)
	Update(ctx context.Context, id uint, input vendors.Update) (*models.Vendor, error)
	Delete(ctx context.Context, id uint) error
}

func ListVendors(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.List(r.Context(), vendors.Filters{
			Category:   strings.TrimSpace(r.URL.Query().Get("category")),
			ActiveOnly: activeOnly != nil && *activeOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetVendor(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

func CreateVendor(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body vendorRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.Create(r.Context(), vendors.Input{
			Name:        validators.SanitizeString(body.Name, 128),
			ContactName: validators.SanitizeString(body.ContactName, 128),
			Email:       body.Email,
			Phone:       validators.SanitizeString(body.Phone, 32),
			Address:     validators.SanitizeString(body.Address, 255),
			Category:    validators.SanitizeString(body.Category, 64),
			Notes:       body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, vendor)
	}
}

func UpdateVendor(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body vendorPatch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendor, err := svc.Update(r.Context(), id, vendors.Update{
			Name:        body.Name,
			ContactName: body.ContactName,
			Email:       body.Email,
			Phone:       body.Phone,
			Address:     body.Address,
			Category:    body.Category,
			Notes:       body.Notes,
			IsActive:    body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendor)
	}
}

func DeleteVendor(svc VendorService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "vendorID")
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
