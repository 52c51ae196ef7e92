package controllers

import (
	"net/http"

	"github.com/angelmondragon/askbox-backend/api/middleware"
	"github.com/angelmondragon/askbox-backend/api/responses"
	"github.com/angelmondragon/askbox-backend/api/validators"
	"github.com/angelmondragon/askbox-backend/internal/profiles"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
)

func ProfileGet(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("profile service", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func ProfileUpdate(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("profile service", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body profiles.UpdateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Update(r.Context(), actor, userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func actorFromRequest(r *http.Request) (profiles.Actor, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return profiles.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	return profiles.Actor{UserID: p.UserID, Role: p.Role}, nil
}
