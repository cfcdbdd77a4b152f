package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/auth"
	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
	"github.com/GuyPaddock/json-service-framework-sub001/internal/logging"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/loyalty"
)

// UserAgent is sent with every CLI request.
var UserAgent = "loyalty-cli/dev"

// CreateClient builds a loyalty client from the merged configuration. The
// caller must Close it.
func CreateClient() (*loyalty.Client, error) {
	config := loadConfig()
	if config.API == "" {
		return nil, constants.ErrNoAPIConfigured
	}

	logger, err := logging.New("development", viper.GetBool(KeyVerbose))
	if err != nil {
		return nil, err
	}

	clientConfig := &client.Config{
		BaseURL:      config.API,
		UserAgent:    UserAgent,
		PageSize:     config.PageSize,
		PageLimit:    config.PageLimit,
		Debug:        viper.GetBool(KeyVerbose),
		Logger:       logger,
		Cache:        config.Cache,
		TokenManager: createTokenManager(config),
	}

	if clientConfig.TokenManager == nil {
		clientConfig.AccessToken = config.Token
	}

	c, err := loyalty.New(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return c, nil
}

// createTokenManager returns a manager that refreshes and saves tokens
// when the configuration carries OAuth2 credentials, nil otherwise.
func createTokenManager(config *Config) auth.TokenManager {
	if config.ClientID == "" && config.RefreshToken == "" {
		return nil
	}

	oauth2Config := &auth.OAuth2Config{
		TokenURL:     tokenURL(config),
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RefreshToken: config.RefreshToken,
	}

	var saved *auth.Token
	if config.Token != "" {
		saved = &auth.Token{AccessToken: config.Token, RefreshToken: config.RefreshToken}
		if config.TokenExpiresAt != nil {
			saved.ExpiresAt = *config.TokenExpiresAt
		} else {
			saved.ExpiresAt = time.Now().Add(time.Hour)
		}
	}

	onPersistErr := func(err error) {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: could not save refreshed token: %v\n", err)
	}

	return auth.NewPersistingTokenManager(oauth2Config, NewConfigPersister(), config.API, saved, onPersistErr)
}

func tokenURL(config *Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	base := strings.TrimSuffix(config.API, "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	return base + "/oauth/token"
}
