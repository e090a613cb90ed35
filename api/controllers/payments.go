package controllers

import (
	"net/http"

	"github.com/article39/artist-platform-backend/api/responses"
	"github.com/article39/artist-platform-backend/api/validators"
	"github.com/article39/artist-platform-backend/internal/payments"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

const msgPaymentRequested = "Payment request created successfully."

func RequestPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artist, err := artistID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var in payments.CreateInput
		if err := validators.DecodeJSONBody(r, &in); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), artist, in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteEnvelope(w, http.StatusCreated, msgPaymentRequested, view)
	}
}

func ArtistPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artist, err := artistID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := r.URL.Query().Get("id"); raw != "" {
			id, err := validators.ParseUUID(raw, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			view, err := svc.Get(r.Context(), artist, id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, view)
			return
		}

		params := workflowPage(r)
		items, total, err := svc.List(r.Context(), artist, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePage(w, r, items, total, params)
	}
}

// PaymentGigs lists gigs the caller applied to and has not requested payment for.
func PaymentGigs(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artist, err := artistID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.UnrequestedGigs(r.Context(), artist)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
