package controllers

import (
	"net/http"

	"github.com/angelmondragon/askbox-backend/api/responses"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
)

// unavailable stands in for a handler whose backing service was not wired.
func unavailable(what string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, what+" unavailable"))
	}
}
