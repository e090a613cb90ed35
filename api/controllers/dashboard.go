package controllers

import (
	"net/http"

	"github.com/article39/artist-platform-backend/api/responses"
	"github.com/article39/artist-platform-backend/internal/dashboard"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

func ArtistDashboard(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artist, err := artistID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), artist)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
