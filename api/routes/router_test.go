package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/article39/artist-platform-backend/api/middleware"
	"github.com/article39/artist-platform-backend/internal/auth"
	"github.com/article39/artist-platform-backend/internal/content"
	"github.com/article39/artist-platform-backend/internal/dashboard"
	pkgAuth "github.com/article39/artist-platform-backend/pkg/auth"
	"github.com/article39/artist-platform-backend/pkg/auth/session"
	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/article39/artist-platform-backend/pkg/db/dbtest"
	"github.com/article39/artist-platform-backend/pkg/enums"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
)

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubPrincipals map[uuid.UUID]*middleware.Principal

func (s stubPrincipals) LoadPrincipal(ctx context.Context, accountID uuid.UUID) (*middleware.Principal, error) {
	if p, ok := s[accountID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "User not found")
}

type stubAuthService struct {
	auth.Service
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if req.Password != "secret" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid credentials")
	}
	return &auth.LoginResponse{Success: true, Access: "a", Refresh: "r", Role: enums.RoleAdmin}, nil
}

type stubDashboard struct{}

func (stubDashboard) Summary(ctx context.Context, artistID uuid.UUID) (*dashboard.Summary, error) {
	return &dashboard.Summary{Applications: 3}, nil
}

type harness struct {
	router     http.Handler
	cfg        *config.Config
	principals stubPrincipals
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	catalog, err := content.NewCatalog(dbtest.Open(t))
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "article39", ExpirationMinutes: 60},
	}
	h := &harness{cfg: cfg, principals: stubPrincipals{}}
	h.router = NewRouter(Params{
		Config:     cfg,
		Logger:     logger.Nop(),
		Sessions:   stubSessions{},
		Principals: h.principals,
		Services: Services{
			Auth:      stubAuthService{},
			Dashboard: stubDashboard{},
			Content:   catalog,
		},
	})
	return h
}

func (h *harness) token(t *testing.T, p *middleware.Principal) string {
	t.Helper()
	p.AccountID = uuid.New()
	h.principals[p.AccountID] = p
	token, err := pkgAuth.MintAccessToken(h.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		AccountID: p.AccountID,
		Role:      p.Role,
		JTI:       session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func adminPrincipal() *middleware.Principal {
	return &middleware.Principal{Role: enums.RoleAdmin}
}

func artistPrincipal(verified bool) *middleware.Principal {
	id := uuid.New()
	return &middleware.Principal{
		Role:           enums.RoleArtist,
		ArtistID:       &id,
		ArtistVerified: verified,
		ArtistKind:     enums.SubmissionMusician,
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthLive(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get("X-Article39-Env"))
}

func TestLoginWritesFlatBody(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/rest-auth/login", "", `{"username":"admin","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "a", body["access"])
	assert.Equal(t, "ADMIN", body["role"])

	rec = h.do(http.MethodPost, "/rest-auth/login", "", `{"username":"admin","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeBody(t, rec)["message"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/administrator/song", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication credentials were not provided.", decodeBody(t, rec)["message"])

	rec = h.do(http.MethodGet, "/administrator/song", h.token(t, artistPrincipal(true)), "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You are not authorized to perform this action", decodeBody(t, rec)["message"])
}

func TestArtistRoutesRequireVerifiedMusician(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/artist/dashboard", h.token(t, artistPrincipal(true)), "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.EqualValues(t, 3, data["applications"])

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/artist/dashboard", h.token(t, artistPrincipal(false)), "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/artist/dashboard", h.token(t, adminPrincipal()), "").Code)
}

func TestContentWritesAreAdminOnly(t *testing.T) {
	h := newHarness(t)
	story := `{"title":"Opening night","content":"body","tags":["live"]}`

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/web-api/stories", "", story).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/web-api/stories", h.token(t, artistPrincipal(true)), story).Code)

	rec := h.do(http.MethodPost, "/web-api/stories", h.token(t, adminPrincipal()), story)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/web-api/stories?page=1&perPage=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Len(t, data["stories"], 1)
	assert.EqualValues(t, 1, data["total"])
	assert.EqualValues(t, 5, data["perPage"])
	assert.Equal(t, true, data["isLastPage"])
}

func TestContentDeleteRequiresID(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodDelete, "/web-api/stories", h.token(t, adminPrincipal()), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No story ID provided", decodeBody(t, rec)["message"])
}

func TestBookingsArePublicWritePrivateRead(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/web-api/tickets", "", `{"event_id":"`+uuid.NewString()+`","buyer_name":"Rafi","buyer_email":"rafi@example.com","buyer_phone":"+8801700000000"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "(event_id)")

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/web-api/tickets", "", "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/web-api/tickets", h.token(t, adminPrincipal()), "").Code)
}
