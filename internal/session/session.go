// Package session owns the persisted auth token of a user and tears it down
// when the remote services reject it.
package session

import (
	"context"
	"time"

	"studyabroad-workers/internal/common/logger"
	"studyabroad-workers/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

type Manager struct {
	store  store.RecordStore
	logger logger.Logger
	now    func() time.Time
}

func NewManager(s store.RecordStore, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Manager{store: s, logger: log, now: time.Now}
}

// Token returns the stored access token, falling back to the legacy key.
// An absent token is returned as "".
func (m *Manager) Token(ctx context.Context) (string, error) {
	for _, key := range []string{store.KeyAccessToken, store.KeyLegacyToken} {
		var token string
		found, err := m.store.Get(ctx, key, &token)
		if err != nil {
			return "", err
		}
		if found && token != "" {
			return token, nil
		}
	}
	return "", nil
}

// Save persists the token under both token keys together with the user id.
func (m *Manager) Save(ctx context.Context, token, userID string) error {
	if err := m.store.Put(ctx, store.KeyAccessToken, token); err != nil {
		return err
	}
	if err := m.store.Put(ctx, store.KeyLegacyToken, token); err != nil {
		return err
	}
	if userID != "" {
		return m.store.Put(ctx, store.KeyUserID, userID)
	}
	return nil
}

// IsAuthenticated reports a stored token that has not expired. Tokens that
// are not JWTs count as valid while present; signatures are checked remotely.
func (m *Manager) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := m.Token(ctx)
	if err != nil || token == "" {
		return false, err
	}
	return !m.expired(token), nil
}

func (m *Manager) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !m.now().Before(exp.Time)
}

// Invalidate removes the token keys and the user id.
func (m *Manager) Invalidate(ctx context.Context, reason string) error {
	m.logger.Info("invalidating session", map[string]interface{}{"reason": reason})
	for _, key := range []string{store.KeyAccessToken, store.KeyLegacyToken, store.KeyUserID} {
		if err := m.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// OnUnauthorized matches http.UnauthorizedHook.
func (m *Manager) OnUnauthorized(ctx context.Context, path string) {
	if err := m.Invalidate(ctx, "unauthorized: "+path); err != nil {
		m.logger.Warn("failed to clear session after 401", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}
