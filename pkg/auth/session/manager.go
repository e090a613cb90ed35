package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/article39/artist-platform-backend/pkg/config"
	redisclient "github.com/article39/artist-platform-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const (
	refreshTokenBytes = 32
	tokenSeparator    = "."
	valueSeparator    = "|"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AccessSessionKey(accessID string) string
}

// Manager stores one refresh session per access token id (the JWT jti).
//
// Refresh tokens handed to clients have the form "<accessID>.<secret>" so a
// refresh request needs nothing but the token itself. Redis keeps
// "<secret>|<accountID>" under the access session key.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Session identifies a live refresh session.
type Session struct {
	AccessID  string
	AccountID uuid.UUID
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("refresh token ttl must be positive")
	}
	if accessTTL := cfg.AccessTokenTTL(); ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: client, keyer: client, ttl: ttl}, nil
}

// Generate opens a refresh session for accessID and returns the refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string, accountID uuid.UUID) (string, error) {
	if strings.TrimSpace(accessID) == "" {
		return "", fmt.Errorf("access id is required")
	}
	if accountID == uuid.Nil {
		return "", fmt.Errorf("account id is required")
	}
	secret, err := generateSecret()
	if err != nil {
		return "", err
	}
	value := secret + valueSeparator + accountID.String()
	if err := m.store.Set(ctx, m.keyer.AccessSessionKey(accessID), value, m.ttl); err != nil {
		return "", err
	}
	return accessID + tokenSeparator + secret, nil
}

// Rotate validates a refresh token, closes its session and opens a new one.
// It returns the new session and the new refresh token.
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (Session, string, error) {
	accessID, secret, ok := splitToken(refreshToken)
	if !ok {
		return Session{}, "", ErrInvalidRefreshToken
	}

	key := m.keyer.AccessSessionKey(accessID)
	stored, err := m.store.Get(ctx, key)
	if err != nil {
		return Session{}, "", wrapNotFound(err)
	}

	storedSecret, rawAccount, found := strings.Cut(stored, valueSeparator)
	if !found || subtle.ConstantTimeCompare([]byte(storedSecret), []byte(secret)) != 1 {
		return Session{}, "", ErrInvalidRefreshToken
	}
	accountID, err := uuid.Parse(rawAccount)
	if err != nil {
		return Session{}, "", ErrInvalidRefreshToken
	}

	next := Session{AccessID: NewAccessID(), AccountID: accountID}
	token, err := m.Generate(ctx, next.AccessID, accountID)
	if err != nil {
		return Session{}, "", err
	}
	if err := m.store.Del(ctx, key); err != nil {
		return Session{}, "", err
	}
	return next, token, nil
}

// Revoke deletes the refresh session tied to the access identifier.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.keyer.AccessSessionKey(accessID))
}

// HasSession reports whether the access ID still has an active refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, fmt.Errorf("access id is required")
	}
	if _, err := m.store.Get(ctx, m.keyer.AccessSessionKey(accessID)); err != nil {
		if errors.Is(err, redislib.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewAccessID produces the identifier used as the JWT jti and Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

func splitToken(token string) (string, string, bool) {
	accessID, secret, ok := strings.Cut(strings.TrimSpace(token), tokenSeparator)
	if !ok || accessID == "" || secret == "" {
		return "", "", false
	}
	return accessID, secret, true
}

func generateSecret() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, redislib.Nil) {
		return ErrInvalidRefreshToken
	}
	return err
}
