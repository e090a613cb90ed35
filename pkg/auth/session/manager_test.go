package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/article39/artist-platform-backend/pkg/config"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(store *mockStore) *Manager {
	return &Manager{store: store, keyer: store, ttl: time.Hour}
}

func TestManagerGenerateAndRotate(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	manager := newTestManager(store)
	accountID := uuid.New()

	token, err := manager.Generate(ctx, "access-123", accountID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "access-123."))

	ok, err := manager.HasSession(ctx, "access-123")
	require.NoError(t, err)
	assert.True(t, ok)

	next, newToken, err := manager.Rotate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, accountID, next.AccountID)
	assert.NotEqual(t, "access-123", next.AccessID)
	assert.True(t, strings.HasPrefix(newToken, next.AccessID+"."))

	ok, err = manager.HasSession(ctx, "access-123")
	require.NoError(t, err)
	assert.False(t, ok, "old session must be closed")

	_, _, err = manager.Rotate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "a rotated token cannot be reused")
}

func TestManagerRotateRejectsTamperedTokens(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	manager := newTestManager(store)

	token, err := manager.Generate(ctx, "access-1", uuid.New())
	require.NoError(t, err)

	for _, bad := range []string{"", "no-separator", "access-1.", ".secret", "access-1.wrong", "unknown." + strings.Split(token, ".")[1]} {
		_, _, err := manager.Rotate(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken, bad)
	}

	ok, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManagerRevoke(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	manager := newTestManager(store)

	_, err := manager.Generate(ctx, "access-9", uuid.New())
	require.NoError(t, err)
	require.NoError(t, manager.Revoke(ctx, "access-9"))

	ok, err := manager.HasSession(ctx, "access-9")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, manager.Revoke(ctx, " "))
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{})
	assert.Error(t, err)
}
