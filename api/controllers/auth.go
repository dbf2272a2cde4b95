package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/aerogourmet-backend/api/middleware"
	"github.com/angelmondragon/aerogourmet-backend/api/responses"
	"github.com/angelmondragon/aerogourmet-backend/api/validators"
	"github.com/angelmondragon/aerogourmet-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

// tokenHeader repeats the access token outside the body for clients that
// only read headers.
const tokenHeader = "X-AG-Token"

type signInFunc[T any] func(auth.Service, context.Context, T) (*auth.LoginResponse, error)

// signIn decodes a T, runs the auth call and writes the session envelope.
func signIn[T any](svc auth.Service, logg *logger.Logger, status int, call signInFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body T
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		session, err := call(svc, ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		w.Header().Set(tokenHeader, session.AccessToken)
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteSuccessStatus(w, status, session)
	}
}

// AuthRegister creates a client account and signs it in.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return signIn(svc, logg, http.StatusCreated, auth.Service.Register)
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return signIn(svc, logg, http.StatusOK, auth.Service.Login)
}

// AuthLogout revokes the session behind the current access token.
func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		if err := svc.Logout(r.Context(), identity.SessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
