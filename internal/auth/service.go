package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/article39/artist-platform-backend/pkg/auth"
	"github.com/article39/artist-platform-backend/pkg/auth/session"
	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

const (
	invalidCredentialsMessage = "Invalid credentials"
	deactivatedMessage        = "Your account is deactivated, please contact admin"
	invalidTokenMessage       = "Token is invalid or expired"

	MsgPasswordChanged = "New password has been saved."
	MsgLoggedOut       = "Successfully logged out."
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	ChangePassword(ctx context.Context, accountID uuid.UUID, req PasswordChangeRequest) error
	VerifyToken(ctx context.Context, token string) error
}

type accountRepository interface {
	FindByLogin(ctx context.Context, login string) (*models.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type profileRepository interface {
	FindByAccountID(ctx context.Context, accountID uuid.UUID) (*models.ArtistProfile, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, accountID uuid.UUID) (string, error)
	Rotate(ctx context.Context, refreshToken string) (session.Session, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	NeedsRehash(encoded string) bool
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Accounts       accountRepository
	Profiles       profileRepository
	SessionManager sessionManager
	Hasher         passwordHasher
	JWTConfig      config.JWTConfig
	Logger         *logger.Logger
}

type service struct {
	accounts accountRepository
	profiles profileRepository
	session  sessionManager
	hasher   passwordHasher
	jwtCfg   config.JWTConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		accounts: params.Accounts,
		profiles: params.Profiles,
		session:  params.SessionManager,
		hasher:   params.Hasher,
		jwtCfg:   params.JWTConfig,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	account, err := s.authenticate(ctx, req.Login(), req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.checkArtist(ctx, account); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.accounts.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}

	accessID := session.NewAccessID()
	access, err := s.mint(now, account, accessID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.session.Generate(ctx, accessID, account.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}

	logCtx := s.logg.WithAccountID(ctx, account.ID.String())
	s.logg.Info(s.logg.WithRole(logCtx, string(account.Role)), "login succeeded")

	return &LoginResponse{
		Success: true,
		Access:  access,
		Refresh: refresh,
		User:    NewUserSummary(account),
		Role:    account.Role,
	}, nil
}

// Refresh rotates the refresh session and mints a matching access token. The
// account is re-checked so a deactivated artist cannot keep refreshing.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	next, refresh, err := s.session.Rotate(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}

	account, err := s.accounts.FindByID(ctx, next.AccountID)
	if err == nil && !account.IsActive {
		err = pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}
	if err == nil {
		err = s.checkArtist(ctx, account)
	}
	if err != nil {
		_ = s.session.Revoke(ctx, next.AccessID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}

	access, err := s.mint(s.now().UTC(), account, next.AccessID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication credentials were not provided.")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, accountID uuid.UUID, req PasswordChangeRequest) error {
	if req.NewPassword1 != req.NewPassword2 {
		return pkgerrors.Fields(pkgerrors.FieldError{Message: "The two new passwords must match."})
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication credentials were not provided.")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	ok, err := s.hasher.Verify(req.OldPassword, account.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.Field("old_password", "Old password is incorrect.")
	}
	hash, err := s.hasher.Hash(req.NewPassword1)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.accounts.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return nil
}

func (s *service) VerifyToken(_ context.Context, token string) error {
	if _, err := pkgAuth.ParseAccessToken(s.jwtCfg, strings.TrimSpace(token)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, invalidTokenMessage)
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, login, password string) (*models.Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	account, err := s.accounts.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup account")
	}

	valid, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !account.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if s.hasher.NeedsRehash(account.PasswordHash) {
		s.rehash(ctx, account, password)
	}
	return account, nil
}

// rehash upgrades a stored hash to the current cost settings. Failure only
// costs the upgrade, so it is logged and the login continues.
func (s *service) rehash(ctx context.Context, account *models.Account, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.accounts.UpdatePasswordHash(ctx, account.ID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "account_id", account.ID.String()), "auth.rehash_failed")
		return
	}
	account.PasswordHash = hash
}

// checkArtist blocks artists whose profile is missing or unverified.
func (s *service) checkArtist(ctx context.Context, account *models.Account) error {
	if account.Role != enums.RoleArtist {
		return nil
	}
	profile, err := s.profiles.FindByAccountID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, deactivatedMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load artist profile")
	}
	if !profile.IsVerified {
		return pkgerrors.New(pkgerrors.CodeForbidden, deactivatedMessage)
	}
	return nil
}

func (s *service) mint(now time.Time, account *models.Account, accessID string) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		AccountID: account.ID,
		Role:      account.Role,
		JTI:       accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}
