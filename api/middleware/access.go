package middleware

import (
	"net/http"

	"github.com/article39/artist-platform-backend/api/responses"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

const msgForbidden = "You are not authorized to perform this action"

// Require gates a route on a capability. It runs after Auth or OptionalAuth.
func Require(c Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if c != CapabilityPublic && principal == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgNotAuthenticated))
				return
			}
			if !Allows(c, principal) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, msgForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
