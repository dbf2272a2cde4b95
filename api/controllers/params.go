package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/aerogourmet-backend/api/middleware"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
)

func actorUserID(r *http.Request) *uint {
	id := middleware.UserIDFromContext(r.Context())
	if id == 0 {
		return nil
	}
	return &id
}

func queryLocation(r *http.Request, key string) (*enums.Location, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	loc, err := enums.ParseLocation(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location").WithDetails(map[string]any{"field": key})
	}
	return &loc, nil
}

func parseLocation(raw, field string) (enums.Location, error) {
	loc, err := enums.ParseLocation(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location").WithDetails(map[string]any{"field": field})
	}
	return loc, nil
}

func optionalLocation(raw *string, field string) (*enums.Location, error) {
	if raw == nil {
		return nil, nil
	}
	loc, err := parseLocation(*raw, field)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
