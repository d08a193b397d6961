package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// Issuer issues identity tokens from password credentials.
type Issuer interface {
	IssueToken(ctx context.Context, req *stackapi.PasswordAuthRequest) (*stackapi.Token, error)
}

// PasswordConfig holds the credentials of a PasswordTokenManager.
type PasswordConfig struct {
	Username    string
	Password    string
	ProjectName string
	DomainName  string
}

// PasswordTokenManager issues a token with the password method and re-issues
// it shortly before it expires.
type PasswordTokenManager struct {
	issuer Issuer
	config PasswordConfig
	store  *TokenStore
	// refreshMutex serializes issuance so concurrent callers share one token.
	refreshMutex sync.Mutex
}

// NewPasswordTokenManager creates a manager issuing tokens through issuer.
func NewPasswordTokenManager(issuer Issuer, config PasswordConfig) *PasswordTokenManager {
	if config.DomainName == "" {
		config.DomainName = constants.DefaultDomainName
	}

	return &PasswordTokenManager{
		issuer: issuer,
		config: config,
		store:  NewTokenStore(),
	}
}

// GetToken returns a valid token, issuing a new one when needed.
func (m *PasswordTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	m.refreshMutex.Lock()
	defer m.refreshMutex.Unlock()

	// Another caller may have issued a token while we waited.
	token = m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.issue(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken issues a new token unconditionally.
func (m *PasswordTokenManager) RefreshToken(ctx context.Context) error {
	m.refreshMutex.Lock()
	defer m.refreshMutex.Unlock()

	return m.issue(ctx)
}

// SetToken seeds the manager with a known token.
func (m *PasswordTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, ExpiresAt: expiresAt})
}

// Current returns the cached token, or nil.
func (m *PasswordTokenManager) Current() *Token {
	return m.store.Get()
}

func (m *PasswordTokenManager) issue(ctx context.Context) error {
	if m.issuer == nil || m.config.Username == "" || m.config.Password == "" {
		return constants.ErrCredentialsMissing
	}

	issued, err := m.issuer.IssueToken(ctx, &stackapi.PasswordAuthRequest{
		Username:    m.config.Username,
		Password:    m.config.Password,
		DomainName:  m.config.DomainName,
		ProjectName: m.config.ProjectName,
	})
	if err != nil {
		return fmt.Errorf("issuing token for %s: %w", m.config.Username, err)
	}

	if issued.ID == "" {
		return constants.ErrNoSubjectToken
	}

	m.store.Set(&Token{
		AccessToken: issued.ID,
		ExpiresAt:   issued.ExpiresAt,
		IssuedAt:    issued.IssuedAt,
	})

	return nil
}
