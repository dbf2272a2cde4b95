package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/aerogourmet-backend/api/responses"
	"github.com/angelmondragon/aerogourmet-backend/api/validators"
	"github.com/angelmondragon/aerogourmet-backend/internal/inventory"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type consumptionRequest struct {
	OrderID  uint   `json:"orderId" validate:"required"`
	Location string `json:"location"`
}

type transactionRequest struct {
	InventoryItemID uint            `json:"inventoryItemId" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	Type            string          `json:"type" validate:"required"`
	OrderID         *uint           `json:"orderId"`
	Location        *string         `json:"location"`
	Notes           *string         `json:"notes"`
}

type inventoryItemRequest struct {
	Name          string          `json:"name" validate:"required,max=128"`
	Category      string          `json:"category" validate:"max=64"`
	Unit          string          `json:"unit" validate:"required,max=16"`
	InStock       decimal.Decimal `json:"inStock"`
	ReorderPoint  decimal.Decimal `json:"reorderPoint"`
	IdealStock    decimal.Decimal `json:"idealStock"`
	Location      string          `json:"location" validate:"required"`
	UnitCostCents int64           `json:"unitCostCents" validate:"gte=0"`
	VendorID      *uint           `json:"vendorId"`
}

type inventoryItemPatch struct {
	Name          *string          `json:"name" validate:"omitempty,max=128"`
	Category      *string          `json:"category" validate:"omitempty,max=64"`
	Unit          *string          `json:"unit" validate:"omitempty,max=16"`
	ReorderPoint  *decimal.Decimal `json:"reorderPoint"`
	IdealStock    *decimal.Decimal `json:"idealStock"`
	Location      *string          `json:"location"`
	UnitCostCents *int64           `json:"unitCostCents" validate:"omitempty,gte=0"`
	VendorID      *uint            `json:"vendorId"`
}

// ConsumeForOrder decrements stock by the recipes of every item on the order.
func ConsumeForOrder(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body consumptionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ConsumeForOrder(r.Context(), inventory.ConsumeInput{
			OrderID:     body.OrderID,
			Location:    body.Location,
			ActorUserID: actorUserID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CreateInventoryTransaction records a restock, waste or adjustment.
func CreateInventoryTransaction(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body transactionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseInventoryTransactionType(body.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}
		if kind == enums.InventoryTxOrderConsumption {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order consumption is recorded through /inventory/order-consumption"))
			return
		}
		loc, err := optionalLocation(body.Location, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, item, err := svc.ApplyTransaction(r.Context(), inventory.TransactionInput{
			InventoryItemID: body.InventoryItemID,
			Quantity:        body.Quantity,
			Type:            kind,
			OrderID:         body.OrderID,
			Location:        loc,
			Notes:           body.Notes,
			ActorUserID:     actorUserID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"transaction": txn,
			"item":        item,
		})
	}
}

func ListInventoryTransactions(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters inventory.TransactionFilters
		var err error
		if filters.InventoryItemID, err = validators.ParseQueryUint(r, "inventoryItemId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.OrderID, err = validators.ParseQueryUint(r, "orderId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
			kind, err := enums.ParseInventoryTransactionType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
				return
			}
			filters.Type = &kind
		}
		if filters.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListTransactions(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// LowStock lists items at or below their reorder point.
func LowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := queryLocation(r, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.LowStock(r.Context(), loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ExportLowStock streams the low stock list as an XLSX workbook.
func ExportLowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := queryLocation(r, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		workbook, err := svc.ExportLowStock(r.Context(), loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scope := "all"
		if loc != nil {
			scope = string(*loc)
		}
		filename := fmt.Sprintf("low-stock-%s-%s.xlsx", scope, time.Now().UTC().Format("20060102"))
		responses.WriteAttachment(w, xlsxContentType, filename, workbook)
	}
}

func ListInventoryItems(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := queryLocation(r, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lowOnly, err := validators.ParseQueryBool(r, "lowStock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := inventory.ItemFilters{
			Location: loc,
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			LowOnly:  lowOnly != nil && *lowOnly,
		}
		rows, err := svc.ListItems(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func GetInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.GetItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func CreateInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body inventoryItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loc, err := parseLocation(body.Location, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.CreateItem(r.Context(), inventory.ItemInput{
			Name:          validators.SanitizeString(body.Name, 128),
			Category:      validators.SanitizeString(body.Category, 64),
			Unit:          validators.SanitizeString(body.Unit, 16),
			InStock:       body.InStock,
			ReorderPoint:  body.ReorderPoint,
			IdealStock:    body.IdealStock,
			Location:      loc,
			UnitCostCents: body.UnitCostCents,
			VendorID:      body.VendorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

// UpdateInventoryItem patches item metadata. Stock only moves through
// transactions, so inStock is rejected as an unknown field.
func UpdateInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body inventoryItemPatch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loc, err := optionalLocation(body.Location, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.UpdateItem(r.Context(), id, inventory.ItemUpdate{
			Name:          body.Name,
			Category:      body.Category,
			Unit:          body.Unit,
			ReorderPoint:  body.ReorderPoint,
			IdealStock:    body.IdealStock,
			Location:      loc,
			UnitCostCents: body.UnitCostCents,
			VendorID:      body.VendorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func DeleteInventoryItem(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteItem(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
