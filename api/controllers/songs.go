package controllers

import (
	"net/http"

	"github.com/article39/artist-platform-backend/api/responses"
	"github.com/article39/artist-platform-backend/api/validators"
	"github.com/article39/artist-platform-backend/internal/songs"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

const msgSongEnlisted = "Song enlisted successfully."

func EnlistSong(svc songs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artist, err := artistID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var in songs.EnlistInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Enlist(r.Context(), artist, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteEnvelope(w, http.StatusCreated, msgSongEnlisted, view)
	}
}

// ArtistSongs serves one of the caller's songs by id or a page filtered by status.
func ArtistSongs(svc songs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artist, err := artistID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		if raw := q.Get("id"); raw != "" {
			id, err := validators.ParseUUID(raw, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			view, err := svc.ArtistGet(r.Context(), artist, id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
			return
		}

		params := workflowPage(r)
		items, total, err := svc.ArtistList(r.Context(), artist, q.Get("status"), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePage(w, r, items, total, params)
	}
}

func AdminSongs(svc songs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if raw := q.Get("id"); raw != "" {
			id, err := validators.ParseUUID(raw, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			view, err := svc.AdminGet(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
			return
		}

		params := workflowPage(r)
		items, total, err := svc.AdminList(r.Context(), q.Get("status"), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePage(w, r, items, total, params)
	}
}

func ReviewSong(svc songs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := accountID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var in songs.ReviewInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg, err := svc.Review(r.Context(), actor, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, msg)
	}
}
