package session

import (
	"context"
	"testing"
	"time"

	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestManager_SaveAndToken(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore(nil)
	m := NewManager(mem, logger.NewTestLogger(t))

	token, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, m.Save(ctx, "abc", "u-1"))
	token, err = m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	var legacy, userID string
	_, _ = mem.Get(ctx, store.KeyLegacyToken, &legacy)
	_, _ = mem.Get(ctx, store.KeyUserID, &userID)
	assert.Equal(t, "abc", legacy)
	assert.Equal(t, "u-1", userID)
}

func TestManager_TokenFallsBackToLegacyKey(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore(nil)
	require.NoError(t, mem.Put(ctx, store.KeyLegacyToken, "old"))

	token, err := NewManager(mem, nil).Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", token)
}

func TestManager_IsAuthenticated(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{name: "no token", token: "", want: false},
		{name: "opaque token", token: "opaque-session-id", want: true},
		{name: "live jwt", token: signed(t, now.Add(time.Hour)), want: true},
		{name: "expired jwt", token: signed(t, now.Add(-time.Minute)), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := NewManager(store.NewMemoryStore(nil), nil)
			m.now = func() time.Time { return now }
			if tt.token != "" {
				require.NoError(t, m.Save(ctx, tt.token, ""))
			}

			got, err := m.IsAuthenticated(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestManager_OnUnauthorizedClearsSession(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore(nil)
	m := NewManager(mem, logger.NewTestLogger(t))
	require.NoError(t, m.Save(ctx, "abc", "u-1"))
	require.NoError(t, mem.Put(ctx, store.KeyShortlist, []string{"1"}))

	m.OnUnauthorized(ctx, "/profile/")

	ok, err := m.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, mem.Len(), "only session keys are removed")
}
