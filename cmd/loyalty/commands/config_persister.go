package commands

import (
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/auth"
)

// ConfigPersister implements auth.TokenPersister by writing tokens to the
// CLI configuration file.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// SaveToken stores token for apiURL. Tokens for another API than the
// configured one are ignored.
func (p *ConfigPersister) SaveToken(apiURL string, token *auth.Token) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if token == nil || apiURL != viper.GetString(KeyAPI) {
		return nil
	}

	viper.Set(KeyToken, token.AccessToken)

	if token.RefreshToken != "" {
		viper.Set(KeyRefreshToken, token.RefreshToken)
	}

	if !token.ExpiresAt.IsZero() {
		viper.Set(KeyTokenExpiresAt, token.ExpiresAt.UTC().Format(time.RFC3339))
	}

	return saveConfig(loadConfig())
}
