package controllers

import (
	"net/http"
	"strings"

	"github.com/article39/artist-platform-backend/api/responses"
	"github.com/article39/artist-platform-backend/api/validators"
	"github.com/article39/artist-platform-backend/internal/gigs"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

const actionMyGigs = "my-gigs"

func AdminGigs(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("id"); raw != "" {
			id, err := validators.ParseUUID(raw, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			view, err := svc.Get(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
			return
		}

		params := workflowPage(r)
		items, total, err := svc.AdminList(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePage(w, r, items, total, params)
	}
}

func CreateGig(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := accountID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var in gigs.CreateInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), actor, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteEnvelope(w, http.StatusCreated, gigs.MsgCreated, view)
	}
}

func UpdateGig(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in gigs.UpdateInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Update(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteEnvelope(w, http.StatusOK, gigs.MsgUpdated, view)
	}
}

func DeleteGig(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("id")
		if strings.TrimSpace(raw) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "No gig ID provided"))
			return
		}
		id, err := validators.ParseUUID(raw, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, gigs.MsgDeleted)
	}
}

// ArtistGigs lists open gigs with the caller's applications embedded.
func ArtistGigs(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artist, err := artistID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		month, err := validators.ParseQueryInt(r, "month", 0, 1, 12)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		year, err := validators.ParseQueryInt(r, "year", 0, 1, 9999)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q := r.URL.Query()
		query := gigs.ArtistQuery{
			Month:  month,
			Year:   year,
			Date:   q.Get("date"),
			MyGigs: q.Get("action") == actionMyGigs,
		}

		params := workflowPage(r)
		items, total, err := svc.ArtistList(r.Context(), artist, query, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePage(w, r, items, total, params)
	}
}

// PublicGigs serves the website listing. Applications are embedded only for
// an authenticated artist.
func PublicGigs(svc gigs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewer := viewerID(r)

		if raw := r.URL.Query().Get("id"); raw != "" {
			id, err := validators.ParseUUID(raw, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			view, err := svc.PublicGet(r.Context(), viewer, id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
			return
		}

		params := workflowPage(r)
		items, total, err := svc.Public(r.Context(), viewer, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePage(w, r, items, total, params)
	}
}
