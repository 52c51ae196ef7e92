package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/askbox-backend/api/middleware"
	"github.com/angelmondragon/askbox-backend/api/responses"
	"github.com/angelmondragon/askbox-backend/api/validators"
	pkgAuth "github.com/angelmondragon/askbox-backend/pkg/auth"
	"github.com/angelmondragon/askbox-backend/pkg/auth/session"
	"github.com/angelmondragon/askbox-backend/pkg/config"
	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	"github.com/angelmondragon/askbox-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type accountLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// sessionClaims reads the access token even when expired; logout and refresh
// only need its session id.
func sessionClaims(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	token := middleware.BearerToken(r)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

// AuthLogout revokes the refresh mapping tied to the presented access token.
func AuthLogout(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	if manager == nil {
		return unavailable("session manager", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := sessionClaims(r, cfg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := manager.Revoke(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthRefresh rotates the refresh token and issues a new access token. The
// account is reloaded first: a deactivated user loses the session, and a
// changed role takes effect in the new token.
func AuthRefresh(manager sessionTokenRotator, accounts accountLookup, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	if manager == nil || accounts == nil {
		return unavailable("session manager", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		claims, err := sessionClaims(r, cfg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := accounts.FindByID(ctx, claims.UserID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !user.IsActive):
			if rerr := manager.Revoke(ctx, claims.ID); rerr != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", rerr.Error()), "auth.refresh.revoke_failed")
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled"))
			return
		case err != nil:
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account"))
			return
		}

		newAccessID, newRefreshToken, err := manager.Rotate(ctx, claims.ID, body.RefreshToken)
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token"))
			return
		} else if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session"))
			return
		}

		accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID:   user.ID,
			Username: user.Username,
			Role:     enums.RoleForFlags(user.IsAdmin, user.IsStaff),
			JTI:      newAccessID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt"))
			return
		}

		w.Header().Set(middleware.TokenHeader, accessToken)
		responses.WriteSuccess(w, refreshResponse{AccessToken: accessToken, RefreshToken: newRefreshToken})
	}
}
