package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/article39/artist-platform-backend/api/middleware"
	"github.com/article39/artist-platform-backend/api/responses"
	"github.com/article39/artist-platform-backend/api/validators"
	"github.com/article39/artist-platform-backend/internal/content"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/pagination"
)

// ContentGet serves one row by ?id= or a page in the website list shape.
func ContentGet[T any](svc *content.Service[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if raw := q.Get("id"); raw != "" {
			row, err := svc.Get(r.Context(), raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, row)
			return
		}

		params := pagination.FromQuery(q, pagination.WebPageParam, pagination.WebPageSizeParam)
		admin := middleware.PrincipalFromContext(r.Context()).IsAdmin()
		rows, total, err := svc.List(r.Context(), params, admin)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meta := pagination.Meta(total, params)
		responses.WriteSuccess(w, map[string]any{
			svc.Resource().ListKey: rows,
			"total":                meta.Total,
			"perPage":              meta.PerPage,
			"page":                 meta.Page,
			"totalPage":            meta.TotalPage,
			"isLastPage":           meta.IsLastPage,
		})
	}
}

func ContentCreate[T any](svc *content.Service[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row := new(T)
		if err := validators.DecodeJSONBody(r, row); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), row)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ContentUpdate applies the body over the stored row, so omitted keys keep
// their current values.
func ContentUpdate[T any](svc *content.Service[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Unable to read request body."))
			return
		}

		updated, err := svc.Update(r.Context(), r.URL.Query().Get("id"), func(row *T) error {
			if len(body) > 0 {
				if err := json.Unmarshal(body, row); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "JSON parse error.")
				}
			}
			return validators.Struct(row)
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func ContentDelete[T any](svc *content.Service[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), r.URL.Query().Get("id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, svc.Resource().DeletedMessage())
	}
}
