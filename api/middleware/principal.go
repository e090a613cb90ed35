package middleware

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
)

// PrincipalLoader turns an authenticated account id into a Principal.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, accountID uuid.UUID) (*Principal, error)
}

type accountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

type profileFinder interface {
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.ArtistProfile, error)
}

type accountPrincipalLoader struct {
	accounts accountFinder
	profiles profileFinder
}

func NewAccountPrincipalLoader(accounts accountFinder, profiles profileFinder) PrincipalLoader {
	return &accountPrincipalLoader{accounts: accounts, profiles: profiles}
}

func (l *accountPrincipalLoader) LoadPrincipal(ctx context.Context, accountID uuid.UUID) (*Principal, error) {
	account, err := l.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	if !account.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User is inactive")
	}

	p := &Principal{AccountID: account.ID, Role: account.Role}
	if account.Role != enums.RoleArtist {
		return p, nil
	}

	profile, err := l.profiles.FindByAccountID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return p, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load artist profile")
	}
	id := profile.ID
	p.ArtistID = &id
	p.ArtistVerified = profile.IsVerified
	p.ArtistKind = profile.Kind
	return p, nil
}
