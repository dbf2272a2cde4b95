package orders

import (
	"context"
	"net/http"

	"github.com/angelmondragon/aerogourmet-backend/api/responses"
	"github.com/angelmondragon/aerogourmet-backend/api/validators"
	"github.com/angelmondragon/aerogourmet-backend/internal/invoices"
	internalorders "github.com/angelmondragon/aerogourmet-backend/internal/orders"
	"github.com/angelmondragon/aerogourmet-backend/internal/payments"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

type InvoiceService interface {
	ForOrder(ctx context.Context, actor internalorders.Actor, orderID uint) (invoices.Invoice, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, actor internalorders.Actor, orderID uint) (*payments.IntentResult, error)
	ForOrder(ctx context.Context, actor internalorders.Actor, orderID uint) ([]models.PaymentRecord, error)
}

// Invoice computes the VAT invoice for an order visible to the caller.
func Invoice(svc InvoiceService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.ForOrder(r.Context(), ActorFrom(r), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

// CreatePaymentIntent starts a card payment for the order's gross amount.
func CreatePaymentIntent(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "payments are not configured"))
			return
		}
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CreateIntent(r.Context(), ActorFrom(r), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func ListPayments(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "payments are not configured"))
			return
		}
		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ForOrder(r.Context(), ActorFrom(r), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
