package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/aerogourmet-backend/api/middleware"
	"github.com/angelmondragon/aerogourmet-backend/api/responses"
	"github.com/angelmondragon/aerogourmet-backend/api/validators"
	"github.com/angelmondragon/aerogourmet-backend/internal/concierge"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

// ConciergeService is the request and review surface used by the handlers.
type ConciergeService interface {
	Create(ctx context.Context, who concierge.Requester, input concierge.CreateInput) (*models.ConciergeRequest, error)
	Get(ctx context.Context, who concierge.Requester, id uint) (*models.ConciergeRequest, error)
	List(ctx context.Context, who concierge.Requester, filters concierge.Filters) (pagination.Page[models.ConciergeRequest], error)
	Review(ctx context.Context, who concierge.Requester, id uint, input concierge.ReviewInput) (*models.ConciergeRequest, error)
}

type conciergeRequest struct {
	OrderID     *uint  `json:"orderId"`
	RequestType string `json:"requestType" validate:"required,max=64"`
	Description string `json:"description" validate:"required,max=2000"`
}

type conciergeReview struct {
	Status          *string `json:"status"`
	AdminPriceCents *int64  `json:"adminPriceCents" validate:"omitempty,gte=0"`
	AdminNotes      *string `json:"adminNotes" validate:"omitempty,max=2000"`
}

func requester(r *http.Request) concierge.Requester {
	identity, _ := middleware.IdentityFromContext(r.Context())
	return concierge.Requester{UserID: identity.UserID, Role: identity.Role}
}

func CreateConciergeRequest(svc ConciergeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body conciergeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.Create(r.Context(), requester(r), concierge.CreateInput{
			OrderID:     body.OrderID,
			RequestType: body.RequestType,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, req)
	}
}

// ListConciergeRequests returns the caller's own requests, or all for staff.
func ListConciergeRequests(svc ConciergeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := concierge.Filters{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseConciergeStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		page, err := svc.List(r.Context(), requester(r), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetConciergeRequest(svc ConciergeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req, err := svc.Get(r.Context(), requester(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func ReviewConciergeRequest(svc ConciergeService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body conciergeReview
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := concierge.ReviewInput{AdminPriceCents: body.AdminPriceCents, AdminNotes: body.AdminNotes}
		if body.Status != nil {
			status, err := enums.ParseConciergeStatus(*body.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}
		req, err := svc.Review(r.Context(), requester(r), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}
