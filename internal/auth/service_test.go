package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/article39/artist-platform-backend/pkg/auth"
	"github.com/article39/artist-platform-backend/pkg/auth/session"
	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/db/models"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "article39",
	ExpirationMinutes: 30,
}

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type stubAccounts struct {
	byID      map[uuid.UUID]*models.Account
	lastLogin map[uuid.UUID]time.Time
}

func newStubAccounts(accounts ...*models.Account) *stubAccounts {
	s := &stubAccounts{byID: map[uuid.UUID]*models.Account{}, lastLogin: map[uuid.UUID]time.Time{}}
	for _, a := range accounts {
		s.byID[a.ID] = a
	}
	return s
}

func (s *stubAccounts) FindByLogin(_ context.Context, login string) (*models.Account, error) {
	for _, a := range s.byID {
		if a.Username == login || a.Email == login {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAccounts) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	if a, ok := s.byID[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubAccounts) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

func (s *stubAccounts) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	s.byID[id].PasswordHash = hash
	return nil
}

type stubProfiles map[uuid.UUID]*models.ArtistProfile

func (s stubProfiles) FindByAccountID(_ context.Context, accountID uuid.UUID) (*models.ArtistProfile, error) {
	if p, ok := s[accountID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessions struct {
	sessions map[string]uuid.UUID
	revoked  []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: map[string]uuid.UUID{}}
}

func (s *stubSessions) Generate(_ context.Context, accessID string, accountID uuid.UUID) (string, error) {
	s.sessions[accessID] = accountID
	return "refresh-" + accessID, nil
}

func (s *stubSessions) Rotate(ctx context.Context, refreshToken string) (session.Session, string, error) {
	for accessID, accountID := range s.sessions {
		if "refresh-"+accessID != refreshToken {
			continue
		}
		delete(s.sessions, accessID)
		next := session.NewAccessID()
		token, _ := s.Generate(ctx, next, accountID)
		return session.Session{AccessID: next, AccountID: accountID}, token, nil
	}
	return session.Session{}, "", session.ErrInvalidRefreshToken
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	delete(s.sessions, accessID)
	s.revoked = append(s.revoked, accessID)
	return nil
}

type fixture struct {
	svc      Service
	accounts *stubAccounts
	profiles stubProfiles
	sessions *stubSessions
	hasher   security.Hasher
	now      time.Time
}

func newFixture(t *testing.T, accounts ...*models.Account) fixture {
	t.Helper()
	f := fixture{
		accounts: newStubAccounts(accounts...),
		profiles: stubProfiles{},
		sessions: newStubSessions(),
		hasher:   security.NewHasher(testPasswordCfg),
	}
	svc, err := NewService(ServiceParams{
		Accounts:       f.accounts,
		Profiles:       f.profiles,
		SessionManager: f.sessions,
		Hasher:         f.hasher,
		JWTConfig:      testJWT,
	})
	require.NoError(t, err)
	now := time.Now().UTC().Truncate(time.Second)
	svc.(*service).now = func() time.Time { return now }
	f.now = now
	f.svc = svc
	return f
}

func newAccount(t *testing.T, role enums.Role, password string) *models.Account {
	t.Helper()
	hash, err := security.NewHasher(testPasswordCfg).Hash(password)
	require.NoError(t, err)
	return &models.Account{
		ID:           uuid.New(),
		Username:     "user-" + uuid.NewString()[:8],
		Email:        "person@example.com",
		FirstName:    "Ada",
		LastName:     "Nwosu",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code, message string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
	if message != "" {
		assert.Equal(t, message, typed.Message())
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func TestLoginAdmin(t *testing.T) {
	admin := newAccount(t, enums.RoleAdmin, "admin-pass")
	f := newFixture(t, admin)

	resp, err := f.svc.Login(context.Background(), LoginRequest{Username: admin.Username, Password: "admin-pass"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, enums.RoleAdmin, resp.Role)
	assert.Equal(t, admin.ID, resp.User.PK)
	assert.Equal(t, "Ada", resp.User.FirstName)
	assert.NotEmpty(t, resp.Refresh)
	assert.Equal(t, f.now, f.accounts.lastLogin[admin.ID])

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.Access)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.AccountID)
	assert.Equal(t, enums.RoleAdmin, claims.Role)
	assert.Contains(t, f.sessions.sessions, claims.ID)
}

func TestLoginAcceptsEmail(t *testing.T) {
	admin := newAccount(t, enums.RoleAdmin, "admin-pass")
	f := newFixture(t, admin)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: admin.Email, Password: "admin-pass"})
	assert.NoError(t, err)
}

func TestLoginRehashesOutdatedPassword(t *testing.T) {
	weaker := testPasswordCfg
	weaker.ArgonTime = 2
	hash, err := security.NewHasher(weaker).Hash("admin-pass")
	require.NoError(t, err)

	admin := newAccount(t, enums.RoleAdmin, "admin-pass")
	admin.PasswordHash = hash
	f := newFixture(t, admin)

	_, err = f.svc.Login(context.Background(), LoginRequest{Username: admin.Username, Password: "admin-pass"})
	require.NoError(t, err)

	stored := f.accounts.byID[admin.ID].PasswordHash
	assert.NotEqual(t, hash, stored)
	assert.False(t, f.hasher.NeedsRehash(stored))
	ok, err := f.hasher.Verify("admin-pass", stored)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginInvalidCredentials(t *testing.T) {
	admin := newAccount(t, enums.RoleAdmin, "admin-pass")
	inactive := newAccount(t, enums.RoleAdmin, "admin-pass")
	inactive.IsActive = false
	f := newFixture(t, admin, inactive)

	cases := []LoginRequest{
		{Username: admin.Username, Password: "wrong"},
		{Username: "nobody", Password: "admin-pass"},
		{Username: inactive.Username, Password: "admin-pass"},
		{Password: "admin-pass"},
	}
	for _, req := range cases {
		_, err := f.svc.Login(context.Background(), req)
		requireCode(t, err, pkgerrors.CodeUnauthorized, "Invalid credentials")
	}
	assert.Empty(t, f.sessions.sessions)
}

func TestLoginRejectsUnverifiedArtist(t *testing.T) {
	artist := newAccount(t, enums.RoleArtist, "artist-pass")
	f := newFixture(t, artist)

	_, err := f.svc.Login(context.Background(), LoginRequest{Username: artist.Username, Password: "artist-pass"})
	requireCode(t, err, pkgerrors.CodeForbidden, "Your account is deactivated, please contact admin")

	f.profiles[artist.ID] = &models.ArtistProfile{ID: uuid.New(), AccountID: artist.ID}
	_, err = f.svc.Login(context.Background(), LoginRequest{Username: artist.Username, Password: "artist-pass"})
	requireCode(t, err, pkgerrors.CodeForbidden, "Your account is deactivated, please contact admin")

	f.profiles[artist.ID].IsVerified = true
	resp, err := f.svc.Login(context.Background(), LoginRequest{Username: artist.Username, Password: "artist-pass"})
	require.NoError(t, err)
	assert.Equal(t, enums.RoleArtist, resp.Role)
}

func TestRefreshRotatesSession(t *testing.T) {
	admin := newAccount(t, enums.RoleAdmin, "admin-pass")
	f := newFixture(t, admin)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginRequest{Username: admin.Username, Password: "admin-pass"})
	require.NoError(t, err)

	pair, err := f.svc.Refresh(ctx, login.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, login.Refresh, pair.Refresh)

	claims, err := pkgAuth.ParseAccessToken(testJWT, pair.Access)
	require.NoError(t, err)
	assert.Contains(t, f.sessions.sessions, claims.ID)

	_, err = f.svc.Refresh(ctx, login.Refresh)
	requireCode(t, err, pkgerrors.CodeUnauthorized, "")
}

func TestRefreshRevokesDeactivatedArtist(t *testing.T) {
	artist := newAccount(t, enums.RoleArtist, "artist-pass")
	f := newFixture(t, artist)
	f.profiles[artist.ID] = &models.ArtistProfile{ID: uuid.New(), AccountID: artist.ID, IsVerified: true}
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginRequest{Username: artist.Username, Password: "artist-pass"})
	require.NoError(t, err)

	f.profiles[artist.ID].IsVerified = false
	_, err = f.svc.Refresh(ctx, login.Refresh)
	requireCode(t, err, pkgerrors.CodeForbidden, "")
	assert.Empty(t, f.sessions.sessions)
	assert.Len(t, f.sessions.revoked, 1)
}

func TestLogoutRevokesSession(t *testing.T) {
	admin := newAccount(t, enums.RoleAdmin, "admin-pass")
	f := newFixture(t, admin)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginRequest{Username: admin.Username, Password: "admin-pass"})
	require.NoError(t, err)
	claims, err := pkgAuth.ParseAccessToken(testJWT, login.Access)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims.ID))
	assert.Empty(t, f.sessions.sessions)

	requireCode(t, f.svc.Logout(ctx, " "), pkgerrors.CodeUnauthorized, "")
}

func TestChangePassword(t *testing.T) {
	admin := newAccount(t, enums.RoleAdmin, "old-pass")
	f := newFixture(t, admin)
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, admin.ID, PasswordChangeRequest{OldPassword: "old-pass", NewPassword1: "new-pass", NewPassword2: "other"})
	requireCode(t, err, pkgerrors.CodeValidation, "The two new passwords must match.")

	err = f.svc.ChangePassword(ctx, admin.ID, PasswordChangeRequest{OldPassword: "bad", NewPassword1: "new-pass", NewPassword2: "new-pass"})
	requireCode(t, err, pkgerrors.CodeValidation, "(old_password) Old password is incorrect.")

	require.NoError(t, f.svc.ChangePassword(ctx, admin.ID, PasswordChangeRequest{OldPassword: "old-pass", NewPassword1: "new-pass", NewPassword2: "new-pass"}))

	ok, err := f.hasher.Verify("new-pass", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyToken(t *testing.T) {
	admin := newAccount(t, enums.RoleAdmin, "admin-pass")
	f := newFixture(t, admin)
	ctx := context.Background()

	token, err := pkgAuth.MintAccessToken(testJWT, time.Now(), pkgAuth.AccessTokenPayload{
		AccountID: admin.ID,
		Role:      enums.RoleAdmin,
		JTI:       session.NewAccessID(),
	})
	require.NoError(t, err)

	assert.NoError(t, f.svc.VerifyToken(ctx, token))
	requireCode(t, f.svc.VerifyToken(ctx, "not-a-token"), pkgerrors.CodeUnauthorized, "")
}
