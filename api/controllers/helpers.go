package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/api/middleware"
	"github.com/article39/artist-platform-backend/api/responses"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/pagination"
)

// artistID returns the caller's artist profile id. Routes that call it sit
// behind the verified_artist capability, so a miss is a wiring fault.
func artistID(r *http.Request) (uuid.UUID, error) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil || p.ArtistID == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "You are not authorized to perform this action")
	}
	return *p.ArtistID, nil
}

func accountID(r *http.Request) (uuid.UUID, error) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication credentials were not provided.")
	}
	return p.AccountID, nil
}

// viewerID is the artist profile id of the caller, or uuid.Nil for anonymous
// visitors and admins.
func viewerID(r *http.Request) uuid.UUID {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil || p.ArtistID == nil {
		return uuid.Nil
	}
	return *p.ArtistID
}

func workflowPage(r *http.Request) pagination.Params {
	return pagination.FromQuery(r.URL.Query(), pagination.PageParam, pagination.PageSizeParam)
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T, total int64, params pagination.Params) {
	responses.WriteSuccess(w, pagination.NewPage(items, total, params, r.URL))
}
