package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister saves tokens to the CLI configuration.
type ConfigPersister interface {
	UpdateToken(token string, expiresAt time.Time) error
}

// ConfigTokenManager wraps a PasswordTokenManager and persists every newly
// issued token, so later CLI invocations can reuse it.
type ConfigTokenManager struct {
	manager         *PasswordTokenManager
	configPersister ConfigPersister
	mutex           sync.Mutex
	lastToken       string
	lastExpiry      time.Time
}

// NewConfigTokenManager creates a config-persisting token manager. An
// initial token, when given, is served until it nears expiry.
func NewConfigTokenManager(manager *PasswordTokenManager, configPersister ConfigPersister, initialToken string, initialExpiry time.Time) *ConfigTokenManager {
	if initialToken != "" {
		manager.SetToken(initialToken, initialExpiry)
	}

	return &ConfigTokenManager{
		manager:         manager,
		configPersister: configPersister,
		lastToken:       initialToken,
		lastExpiry:      initialExpiry,
	}
}

// GetToken returns a valid token and persists it when it was re-issued.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	m.persistIfChanged()

	return token, nil
}

// RefreshToken forces a new token and persists it.
func (m *ConfigTokenManager) RefreshToken(ctx context.Context) error {
	err := m.manager.RefreshToken(ctx)
	if err != nil {
		return err
	}

	m.persistIfChanged()

	return nil
}

// SetToken manually sets the token without persisting it.
func (m *ConfigTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.manager.SetToken(token, expiresAt)
	m.lastToken = token
	m.lastExpiry = expiresAt
}

// IsTokenExpiringSoon returns true if the token expires within the given duration.
func (m *ConfigTokenManager) IsTokenExpiringSoon(within time.Duration) bool {
	token := m.manager.Current()
	if token == nil {
		return true
	}

	if token.ExpiresAt.IsZero() {
		return false
	}

	return time.Now().Add(within).After(token.ExpiresAt)
}

// GetTokenExpiry returns the current token's expiration time.
func (m *ConfigTokenManager) GetTokenExpiry() time.Time {
	token := m.manager.Current()
	if token == nil {
		return time.Time{}
	}

	return token.ExpiresAt
}

func (m *ConfigTokenManager) persistIfChanged() {
	current := m.manager.Current()
	if current == nil {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if current.AccessToken == m.lastToken && current.ExpiresAt.Equal(m.lastExpiry) {
		return
	}

	m.lastToken = current.AccessToken
	m.lastExpiry = current.ExpiresAt

	persistErr := m.persistToken(current)
	if persistErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist issued token: %v\n", persistErr)
	}
}

func (m *ConfigTokenManager) persistToken(token *Token) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.UpdateToken(token.AccessToken, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to update token: %w", err)
	}

	return nil
}
