package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
)

// Viper keys. Flags are bound to the same keys in main.
const (
	KeyAPI            = "api"
	KeyToken          = "token"
	KeyTokenExpiresAt = "token_expires_at"
	KeyRefreshToken   = "refresh_token"
	KeyTokenURL       = "token_url"
	KeyClientID       = "client_id"
	KeyClientSecret   = "client_secret"
	KeyOutput         = "output"
	KeyVerbose        = "verbose"
	KeyPageSize       = "page_size"
	KeyPageLimit      = "page_limit"
	KeyCache          = "cache"
)

// ConfigDirName is the directory under the user's home holding config.yml.
const ConfigDirName = ".loyalty"

// Config is the persisted CLI configuration.
type Config struct {
	API            string              `json:"api,omitempty"              yaml:"api,omitempty"`
	Token          string              `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time          `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	RefreshToken   string              `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	TokenURL       string              `json:"token_url,omitempty"        yaml:"token_url,omitempty"`
	ClientID       string              `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	ClientSecret   string              `json:"client_secret,omitempty"    yaml:"client_secret,omitempty"`
	Output         string              `json:"output,omitempty"           yaml:"output,omitempty"`
	PageSize       int                 `json:"page_size,omitempty"        yaml:"page_size,omitempty"`
	PageLimit      int                 `json:"page_limit,omitempty"       yaml:"page_limit,omitempty"`
	Cache          *client.CacheConfig `json:"cache,omitempty"            yaml:"cache,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in ~/.loyalty/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.Token != "" {
				config.Token = Masked
			}

			if config.RefreshToken != "" {
				config.RefreshToken = Masked
			}

			if config.ClientSecret != "" {
				config.ClientSecret = Masked
			}

			return render(cmd, config, func(table *tablewriter.Table) error {
				table.Header("Setting", "Value")

				return table.Bulk([][]string{
					{"API", valueOr(config.API, NotSet)},
					{"Token", valueOr(config.Token, NotSet)},
					{"Client ID", valueOr(config.ClientID, NotSet)},
					{"Output", valueOr(config.Output, NotSet)},
					{"Page size", strconv.Itoa(config.PageSize)},
					{"Page limit", strconv.Itoa(config.PageLimit)},
				})
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set one of: api, output, page_size, page_limit, client_id, client_secret, token_url",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			switch key {
			case KeyAPI, KeyClientID, KeyClientSecret, KeyTokenURL:
			case KeyOutput:
				err := validateOutput(value)
				if err != nil {
					return err
				}
			case KeyPageSize, KeyPageLimit:
				_, err := parsePositive(value)
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
			default:
				return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
			}

			viper.Set(key, value)

			err := saveConfig(loadConfig())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", key)

			return nil
		},
	}
}

// loadConfig reads the merged configuration (file, environment, flags).
func loadConfig() *Config {
	config := &Config{
		API:          viper.GetString(KeyAPI),
		Token:        viper.GetString(KeyToken),
		RefreshToken: viper.GetString(KeyRefreshToken),
		TokenURL:     viper.GetString(KeyTokenURL),
		ClientID:     viper.GetString(KeyClientID),
		ClientSecret: viper.GetString(KeyClientSecret),
		Output:       viper.GetString(KeyOutput),
		PageSize:     viper.GetInt(KeyPageSize),
		PageLimit:    viper.GetInt(KeyPageLimit),
	}

	if viper.IsSet(KeyTokenExpiresAt) {
		expiresAt := viper.GetTime(KeyTokenExpiresAt)
		if !expiresAt.IsZero() {
			config.TokenExpiresAt = &expiresAt
		}
	}

	if viper.IsSet(KeyCache) {
		cache := &client.CacheConfig{}
		if err := viper.UnmarshalKey(KeyCache, cache); err == nil && cache.Type != "" {
			config.Cache = cache
		}
	}

	return config
}

// configFile returns the file in use, defaulting to ~/.loyalty/config.yml.
func configFile() (string, error) {
	if file := viper.ConfigFileUsed(); file != "" {
		return file, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ConfigDirName, "config.yml"), nil
}

func saveConfig(config *Config) error {
	file, err := configFile()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(file), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(file, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
