package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/askbox-backend/api/middleware"
	"github.com/angelmondragon/askbox-backend/api/responses"
	"github.com/angelmondragon/askbox-backend/api/validators"
	"github.com/angelmondragon/askbox-backend/internal/auth"
	"github.com/angelmondragon/askbox-backend/internal/users"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
)

// writeSession answers with the session body and mirrors the access token
// into TokenHeader for clients that only read headers.
func writeSession(w http.ResponseWriter, status int, result *auth.LoginResponse) {
	w.Header().Set(middleware.TokenHeader, result.AccessToken)
	responses.WriteSuccessStatus(w, status, result)
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("auth service", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeSession(w, http.StatusOK, result)
	}
}

// AuthRegister creates the identity and logs it in. A rejected sign-up answers
// with the field rejections and the submitted username and email.
func AuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if reg == nil || svc == nil {
		return unavailable("auth service", logg)
	}
	return signUp(reg.Register, svc, logg)
}

// AdminAuthRegister creates an admin+staff identity. It is only routed
// outside production.
func AdminAuthRegister(reg auth.AdminRegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if reg == nil || svc == nil {
		return unavailable("auth service", logg)
	}
	return signUp(reg.CreatePrivileged, svc, logg)
}

// signUp decodes a Req, creates the account with create and starts its first session.
func signUp[Req any](create func(context.Context, Req) (*users.UserDTO, error), svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body Req
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.StartSession(r.Context(), user.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeSession(w, http.StatusCreated, result)
	}
}
