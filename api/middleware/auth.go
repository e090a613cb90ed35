package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/article39/artist-platform-backend/api/responses"
	"github.com/article39/artist-platform-backend/api/validators"
	pkgAuth "github.com/article39/artist-platform-backend/pkg/auth"
	"github.com/article39/artist-platform-backend/pkg/auth/session"
	"github.com/article39/artist-platform-backend/pkg/config"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

const msgNotAuthenticated = "Authentication credentials were not provided."

// Auth validates a bearer token, confirms its session is still live and
// seeds the request context with the resolved Principal.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, loader PrincipalLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, verifier, loader, logg, true)
}

// OptionalAuth resolves a Principal when a token is sent and otherwise lets
// the request through anonymously. A token that is sent but invalid is still
// rejected.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, loader PrincipalLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, verifier, loader, logg, false)
}

func authenticate(cfg config.JWTConfig, verifier session.AccessSessionChecker, loader PrincipalLoader, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgNotAuthenticated))
				return
			}

			principal, err := resolve(r.Context(), cfg, verifier, loader, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, principal.AccountID.String())
				ctx = logg.WithRole(ctx, string(principal.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolve(ctx context.Context, cfg config.JWTConfig, verifier session.AccessSessionChecker, loader PrincipalLoader, header string) (*Principal, error) {
	token, err := validators.BearerToken(header)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msgNotAuthenticated)
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Given token not valid for any token type")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Given token not valid for any token type")
	}

	if verifier != nil {
		ok, err := verifier.HasSession(ctx, claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Token is invalid or expired")
		}
	}

	principal, err := loader.LoadPrincipal(ctx, claims.AccountID)
	if err != nil {
		return nil, err
	}
	principal.SessionID = claims.ID
	return principal, nil
}
