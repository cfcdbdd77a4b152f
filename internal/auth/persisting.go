package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenPersister = errors.New("no token persister configured")
)

// TokenPersister saves tokens so later runs can reuse them.
type TokenPersister interface {
	SaveToken(apiURL string, token *Token) error
}

// PersistingTokenManager wraps an OAuth2TokenManager and hands every newly
// issued token to a TokenPersister.
type PersistingTokenManager struct {
	oauth2Manager *OAuth2TokenManager
	persister     TokenPersister
	apiURL        string
	onPersistErr  func(error)

	mu   sync.Mutex
	last string
}

// NewPersistingTokenManager creates a manager seeded with a previously
// saved token. onPersistErr, if set, receives save failures; they never
// fail the request that triggered them.
func NewPersistingTokenManager(config *OAuth2Config, persister TokenPersister, apiURL string, saved *Token, onPersistErr func(error)) *PersistingTokenManager {
	manager := NewOAuth2TokenManager(config)

	last := ""
	if saved != nil && saved.AccessToken != "" {
		manager.store.Set(saved)
		last = saved.AccessToken
	}

	return &PersistingTokenManager{
		oauth2Manager: manager,
		persister:     persister,
		apiURL:        apiURL,
		onPersistErr:  onPersistErr,
		last:          last,
	}
}

// GetToken returns a valid access token, saving it if it is new.
func (m *PersistingTokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.oauth2Manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	m.persistIfChanged()

	return token, nil
}

// RefreshToken forces a refresh and saves the result.
func (m *PersistingTokenManager) RefreshToken(ctx context.Context) error {
	err := m.oauth2Manager.RefreshToken(ctx)
	if err != nil {
		return err
	}

	m.persistIfChanged()

	return nil
}

// SetToken stores a token without saving it.
func (m *PersistingTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.oauth2Manager.SetToken(token, expiresAt)
	m.last = token
}

// TokenExpiry returns the current token's expiration time.
func (m *PersistingTokenManager) TokenExpiry() time.Time {
	token := m.oauth2Manager.CurrentToken()
	if token == nil {
		return time.Time{}
	}

	return token.ExpiresAt
}

func (m *PersistingTokenManager) persistIfChanged() {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.oauth2Manager.CurrentToken()
	if current == nil || current.AccessToken == m.last {
		return
	}

	m.last = current.AccessToken

	err := m.persist(current)
	if err != nil && m.onPersistErr != nil {
		m.onPersistErr(err)
	}
}

func (m *PersistingTokenManager) persist(token *Token) error {
	if m.persister == nil {
		return ErrNoTokenPersister
	}

	err := m.persister.SaveToken(m.apiURL, token)
	if err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	return nil
}
