package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/article39/artist-platform-backend/api/responses"
	"github.com/article39/artist-platform-backend/api/validators"
	"github.com/article39/artist-platform-backend/internal/submissions"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/schema"
)

const (
	msgMusicianSubmitted  = "Artist form submitted successfully."
	msgFilmmakerSubmitted = "Filmmaker form submitted successfully."
)

func SubmitMusician(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in submissions.MusicianInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.CreateMusician(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteEnvelope(w, http.StatusCreated, msgMusicianSubmitted, view)
	}
}

// SubmitFilmmaker keeps the body as a raw document so the budget schema can
// report every violation by path.
func SubmitFilmmaker(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Unable to read request body."))
			return
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Request body is required."))
			return
		}
		doc, err := schema.Decode(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "JSON parse error."))
			return
		}

		view, err := svc.CreateFilmmaker(r.Context(), doc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteEnvelope(w, http.StatusCreated, msgFilmmakerSubmitted, view)
	}
}

func GetMusicians(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("id"); raw != "" {
			id, err := validators.ParseUUID(raw, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			view, err := svc.GetMusician(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
			return
		}

		params := workflowPage(r)
		items, total, err := svc.ListMusicians(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePage(w, r, items, total, params)
	}
}

func GetFilmmakers(svc submissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("id"); raw != "" {
			id, err := validators.ParseUUID(raw, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			view, err := svc.GetFilmmaker(r.Context(), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
			return
		}

		params := workflowPage(r)
		items, total, err := svc.ListFilmmakers(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePage(w, r, items, total, params)
	}
}
