package controllers

import (
	"net/http"

	"github.com/angelmondragon/askbox-backend/api/responses"
	"github.com/angelmondragon/askbox-backend/api/validators"
	"github.com/angelmondragon/askbox-backend/internal/questions"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
	"github.com/angelmondragon/askbox-backend/pkg/pagination"
)

const maxSearchQueryLength = 100

func QuestionList(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("questions service", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), pagination.Params{Limit: limit, Page: page})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func QuestionCreate(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("questions service", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body questions.CreateQuestionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		question, err := svc.Ask(r.Context(), actor.UserID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, question)
	}
}

func QuestionDetail(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("questions service", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "questionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func AnswerCreate(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("questions service", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseUUIDParam(r, "questionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body questions.CreateAnswerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		answer, err := svc.Answer(r.Context(), actor.UserID, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, answer)
	}
}

// Search answers GET /search?q=; an empty query is a validation error.
func Search(svc questions.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("questions service", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLength)
		result, err := svc.Search(r.Context(), query, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
