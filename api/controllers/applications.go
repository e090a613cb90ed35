package controllers

import (
	"net/http"

	"github.com/article39/artist-platform-backend/api/responses"
	"github.com/article39/artist-platform-backend/api/validators"
	"github.com/article39/artist-platform-backend/internal/applications"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

const (
	msgApplied        = "Applied to gig successfully."
	msgApplicationSet = "Application status updated successfully."
)

// ApplyGig reports per-song outcomes; it fails only when no song was applied.
func ApplyGig(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artist, err := artistID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var in applications.ApplyInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Apply(r.Context(), artist, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteEnvelope(w, http.StatusCreated, msgApplied, result)
	}
}

func AdminApplications(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gigID, err := validators.ParseQueryUUID(r, "gig_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := workflowPage(r)
		items, total, err := svc.AdminList(r.Context(), gigID, r.URL.Query().Get("status"), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePage(w, r, items, total, params)
	}
}

func SetApplicationStatus(svc applications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in applications.StatusInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetStatus(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteEnvelope(w, http.StatusOK, msgApplicationSet, view)
	}
}
