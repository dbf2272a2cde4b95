package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/aerogourmet-backend/api/responses"
	"github.com/angelmondragon/aerogourmet-backend/api/validators"
	"github.com/angelmondragon/aerogourmet-backend/internal/purchaseorders"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

type poLineRequest struct {
	InventoryItemID *uint  `json:"inventoryItemId"`
	Description     string `json:"description" validate:"required,max=255"`
	Quantity        int    `json:"quantity" validate:"gt=0"`
	UnitCostCents   int64  `json:"unitCostCents" validate:"gte=0"`
}

type purchaseOrderRequest struct {
	VendorID     uint            `json:"vendorId" validate:"required"`
	Location     string          `json:"location" validate:"required"`
	Status       *string         `json:"status"`
	ExpectedDate *time.Time      `json:"expectedDate"`
	Notes        *string         `json:"notes"`
	Items        []poLineRequest `json:"items" validate:"dive"`
}

type purchaseOrderPatch struct {
	VendorID     *uint      `json:"vendorId"`
	Location     *string    `json:"location"`
	Status       *string    `json:"status"`
	ExpectedDate *time.Time `json:"expectedDate"`
	Notes        *string    `json:"notes"`
}

type poItemRequest struct {
	PurchaseOrderID uint `json:"purchaseOrderId" validate:"required"`
	poLineRequest
}

type poItemPatch struct {
	InventoryItemID *uint   `json:"inventoryItemId"`
	Description     *string `json:"description" validate:"omitempty,max=255"`
	Quantity        *int    `json:"quantity" validate:"omitempty,gt=0"`
	UnitCostCents   *int64  `json:"unitCostCents" validate:"omitempty,gte=0"`
}

func parsePOStatus(raw *string) (*enums.PurchaseOrderStatus, error) {
	if raw == nil {
		return nil, nil
	}
	status, err := enums.ParsePurchaseOrderStatus(*raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase order status")
	}
	return &status, nil
}

func ListPurchaseOrders(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters purchaseorders.Filters
		var err error
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			if filters.Status, err = parsePOStatus(&raw); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		if filters.VendorID, err = validators.ParseQueryUint(r, "vendorId"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.Location, err = queryLocation(r, "location"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filters.Limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		page, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// GetPurchaseOrder returns the header with its lines.
func GetPurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "purchaseOrderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		po, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, po)
	}
}

func CreatePurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body purchaseOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loc, err := parseLocation(body.Location, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parsePOStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := purchaseorders.CreateInput{
			VendorID:     body.VendorID,
			Location:     loc,
			Status:       status,
			ExpectedDate: body.ExpectedDate,
			Notes:        body.Notes,
			ActorUserID:  actorUserID(r),
		}
		for _, line := range body.Items {
			input.Items = append(input.Items, purchaseorders.ItemInput{
				InventoryItemID: line.InventoryItemID,
				Description:     validators.SanitizeString(line.Description, 255),
				Quantity:        line.Quantity,
				UnitCostCents:   line.UnitCostCents,
			})
		}
		po, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, po)
	}
}

func UpdatePurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "purchaseOrderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body purchaseOrderPatch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		loc, err := optionalLocation(body.Location, "location")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parsePOStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		po, err := svc.Update(r.Context(), id, purchaseorders.UpdateInput{
			VendorID:     body.VendorID,
			Location:     loc,
			Status:       status,
			ExpectedDate: body.ExpectedDate,
			Notes:        body.Notes,
			ActorUserID:  actorUserID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, po)
	}
}

func DeletePurchaseOrder(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "purchaseOrderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id, actorUserID(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListPurchaseOrderItems requires the purchaseOrderId query parameter.
func ListPurchaseOrderItems(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poID, err := validators.ParseQueryUint(r, "purchaseOrderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if poID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "purchaseOrderId is required"))
			return
		}
		rows, err := svc.ListItems(r.Context(), *poID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func CreatePurchaseOrderItem(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body poItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.AddItem(r.Context(), purchaseorders.ItemInput{
			PurchaseOrderID: body.PurchaseOrderID,
			InventoryItemID: body.InventoryItemID,
			Description:     validators.SanitizeString(body.Description, 255),
			Quantity:        body.Quantity,
			UnitCostCents:   body.UnitCostCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

func UpdatePurchaseOrderItem(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body poItemPatch
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.UpdateItem(r.Context(), id, purchaseorders.ItemUpdate{
			InventoryItemID: body.InventoryItemID,
			Description:     body.Description,
			Quantity:        body.Quantity,
			UnitCostCents:   body.UnitCostCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func DeletePurchaseOrderItem(svc purchaseorders.Service, logg *logger.Logger) http.HandlerFunc {
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
