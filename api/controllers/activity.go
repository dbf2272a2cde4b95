package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/aerogourmet-backend/api/responses"
	"github.com/angelmondragon/aerogourmet-backend/api/validators"
	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
)

type ActivityLister interface {
	List(ctx context.Context, query activity.ListQuery) (pagination.Page[models.ActivityLog], error)
}

// ListActivityLogs is the admin audit feed.
func ListActivityLogs(svc ActivityLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entityID, err := validators.ParseQueryUint(r, "entityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), activity.ListQuery{
			EntityType: strings.TrimSpace(r.URL.Query().Get("entityType")),
			EntityID:   entityID,
			Action:     strings.TrimSpace(r.URL.Query().Get("action")),
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
