package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/angelmondragon/askbox-backend/api/responses"
	"github.com/angelmondragon/askbox-backend/api/validators"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type accountStatusSetter interface {
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type accountStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// AdminSetAccountStatus enables or disables login for an identity.
func AdminSetAccountStatus(repo accountStatusSetter, logg *logger.Logger) http.HandlerFunc {
	if repo == nil {
		return unavailable("user repository", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body accountStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := repo.SetActive(r.Context(), userID, *body.Active); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update account status"))
			return
		}

		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"target_user_id": userID.String(), "active": *body.Active})
			logg.Info(ctx, "admin.account_status.updated")
		}
		responses.WriteSuccess(w, map[string]any{"user_id": userID, "is_active": *body.Active})
	}
}
