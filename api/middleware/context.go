package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/article39/artist-platform-backend/pkg/enums"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// Principal is the caller resolved once per request from the current
// account row, never from token claims alone.
type Principal struct {
	AccountID      uuid.UUID
	Role           enums.Role
	ArtistID       *uuid.UUID
	ArtistVerified bool
	ArtistKind     enums.SubmissionKind
	SessionID      string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == enums.RoleAdmin
}

// IsVerifiedMusician reports whether the caller may use the artist portal.
func (p *Principal) IsVerifiedMusician() bool {
	return p != nil &&
		p.Role == enums.RoleArtist &&
		p.ArtistID != nil &&
		p.ArtistVerified &&
		p.ArtistKind == enums.SubmissionMusician
}

func PrincipalFromContext(ctx context.Context) *Principal {
	if ctx == nil {
		return nil
	}
	if p, ok := ctx.Value(ctxPrincipal).(*Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal injects the resolved caller into the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}
