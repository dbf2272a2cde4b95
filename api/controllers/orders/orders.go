// Package orders exposes the order lifecycle over HTTP.
package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/aerogourmet-backend/api/middleware"
	"github.com/angelmondragon/aerogourmet-backend/api/responses"
	"github.com/angelmondragon/aerogourmet-backend/api/validators"
	internalorders "github.com/angelmondragon/aerogourmet-backend/internal/orders"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

// itemRequest takes unitPrice in minor units; unitPriceCents is the older
// name for the same field.
type itemRequest struct {
	MenuItemID          validators.FlexInt    `json:"menuItemId"`
	Quantity            validators.FlexInt    `json:"quantity"`
	UnitPrice           validators.FlexInt    `json:"unitPrice"`
	UnitPriceCents      validators.FlexInt    `json:"unitPriceCents"`
	SpecialInstructions validators.FlexString `json:"specialInstructions"`
}

func (i itemRequest) unitPrice() *int64 {
	if i.UnitPrice.Set {
		return i.UnitPrice.Ptr()
	}
	return i.UnitPriceCents.Ptr()
}

// createRequest only hard-validates items. Everything else is decoded
// loosely and the service applies fallback defaults.
type createRequest struct {
	FlightNumber        validators.FlexString `json:"flightNumber"`
	Airline             validators.FlexString `json:"airline"`
	AircraftType        validators.FlexString `json:"aircraftType"`
	DepartureAirport    validators.FlexString `json:"departureAirport"`
	DepartureTime       validators.FlexTime   `json:"departureTime"`
	Location            validators.FlexString `json:"location"`
	DeliveryAddress     validators.FlexString `json:"deliveryAddress"`
	PassengerCount      validators.FlexInt    `json:"passengerCount"`
	CrewCount           validators.FlexInt    `json:"crewCount"`
	ContactName         validators.FlexString `json:"contactName"`
	ContactEmail        validators.FlexString `json:"contactEmail"`
	ContactPhone        validators.FlexString `json:"contactPhone"`
	SpecialInstructions validators.FlexString `json:"specialInstructions"`
	DeliveryFee         validators.FlexInt    `json:"deliveryFee"`
	DeliveryFeeCents    validators.FlexInt    `json:"deliveryFeeCents"`
	Items               []itemRequest         `json:"items" validate:"required,min=1"`
}

func (c createRequest) deliveryFee() int64 {
	if c.DeliveryFee.Set {
		return c.DeliveryFee.Value
	}
	return c.DeliveryFeeCents.Value
}

type updateRequest struct {
	FlightNumber        *string    `json:"flightNumber" validate:"omitempty,max=16"`
	Airline             *string    `json:"airline"`
	AircraftType        *string    `json:"aircraftType"`
	DepartureAirport    *string    `json:"departureAirport"`
	DepartureTime       *time.Time `json:"departureTime"`
	DeliveryAddress     *string    `json:"deliveryAddress"`
	PassengerCount      *int       `json:"passengerCount"`
	CrewCount           *int       `json:"crewCount"`
	ContactName         *string    `json:"contactName"`
	ContactEmail        *string    `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone        *string    `json:"contactPhone"`
	SpecialInstructions *string    `json:"specialInstructions"`
	DeliveryFeeCents    *int64     `json:"deliveryFeeCents"`
	Status              *string    `json:"status"`
	Notes               *string    `json:"notes"`
}

type statusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes"`
}

type cancelRequest struct {
	Notes *string `json:"notes"`
}

// ActorFrom converts the request identity into an order actor. Anonymous
// requests yield the zero actor.
func ActorFrom(r *http.Request) internalorders.Actor {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return internalorders.Actor{}
	}
	return internalorders.Actor{UserID: identity.UserID, Name: identity.Name, Role: identity.Role}
}

// Create places a new order. Guests are allowed when the service permits it.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var body createRequest
		if err := validators.DecodeLenientJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			FlightNumber:        validators.SanitizeString(body.FlightNumber.Value, 16),
			Airline:             validators.SanitizeString(body.Airline.Value, 128),
			AircraftType:        validators.SanitizeString(body.AircraftType.Value, 64),
			DepartureAirport:    strings.ToUpper(validators.SanitizeString(body.DepartureAirport.Value, 8)),
			DepartureTime:       body.DepartureTime.Value,
			Location:            strings.ToLower(body.Location.Value),
			DeliveryAddress:     validators.SanitizeString(body.DeliveryAddress.Value, 255),
			PassengerCount:      body.PassengerCount.Int(),
			CrewCount:           body.CrewCount.Int(),
			ContactName:         validators.SanitizeString(body.ContactName.Value, 128),
			ContactEmail:        validators.LenientEmail(body.ContactEmail.Value, 255),
			ContactPhone:        validators.SanitizeString(body.ContactPhone.Value, 32),
			SpecialInstructions: body.SpecialInstructions.Ptr(),
			DeliveryFeeCents:    body.deliveryFee(),
			Items:               make([]internalorders.ItemInput, 0, len(body.Items)),
		}
		for _, item := range body.Items {
			input.Items = append(input.Items, internalorders.ItemInput{
				MenuItemID:          uint(max(item.MenuItemID.Value, 0)),
				Quantity:            item.Quantity.Int(),
				UnitPriceCents:      item.unitPrice(),
				SpecialInstructions: item.SpecialInstructions.Ptr(),
			})
		}

		order, err := svc.CreateOrder(r.Context(), ActorFrom(r), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// List returns the caller's orders, or every order for staff.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := internalorders.ListFilters{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("kitchen")); raw != "" {
			kitchen, err := enums.ParseLocation(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kitchen filter"))
				return
			}
			filters.Kitchen = &kitchen
		}

		page, err := svc.ListOrders(r.Context(), ActorFrom(r), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), ActorFrom(r), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Update applies a partial update, optionally including a status change.
func Update(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateOrder(r.Context(), ActorFrom(r), orderID, internalorders.UpdateOrderInput{
			FlightNumber:        body.FlightNumber,
			Airline:             body.Airline,
			AircraftType:        body.AircraftType,
			DepartureAirport:    body.DepartureAirport,
			DepartureTime:       body.DepartureTime,
			DeliveryAddress:     body.DeliveryAddress,
			PassengerCount:      body.PassengerCount,
			CrewCount:           body.CrewCount,
			ContactName:         body.ContactName,
			ContactEmail:        body.ContactEmail,
			ContactPhone:        body.ContactPhone,
			SpecialInstructions: body.SpecialInstructions,
			DeliveryFeeCents:    body.DeliveryFeeCents,
			Status:              body.Status,
			Notes:               body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateStatus transitions the order and returns the full status history.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateStatus(r.Context(), ActorFrom(r), orderID, body.Status, body.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body cancelRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		view, err := svc.CancelOrder(r.Context(), ActorFrom(r), orderID, body.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func StatusHistory(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.StatusHistory(r.Context(), ActorFrom(r), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// Delete hard deletes an order with its items and history.
func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteOrder(r.Context(), ActorFrom(r), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
