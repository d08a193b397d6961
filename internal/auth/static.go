package auth

import (
	"context"
	"time"

	"github.com/fivetwenty-io/stackapi/internal/constants"
)

// StaticTokenManager serves a pre-issued token. It cannot refresh.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a manager serving token. A zero expiresAt
// means the token never expires locally.
func NewStaticTokenManager(token string, expiresAt time.Time) *StaticTokenManager {
	manager := &StaticTokenManager{store: NewTokenStore()}
	manager.SetToken(token, expiresAt)

	return manager
}

// GetToken returns the token while it is valid.
func (m *StaticTokenManager) GetToken(_ context.Context) (string, error) {
	token := m.store.Get()
	if !token.Valid() {
		return "", constants.ErrNotAuthenticated
	}

	return token.AccessToken, nil
}

// RefreshToken always fails: a static token has no credentials behind it.
func (m *StaticTokenManager) RefreshToken(_ context.Context) error {
	return constants.ErrCredentialsMissing
}

// SetToken replaces the token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	if token == "" {
		m.store.Clear()

		return
	}

	m.store.Set(&Token{AccessToken: token, ExpiresAt: expiresAt})
}
