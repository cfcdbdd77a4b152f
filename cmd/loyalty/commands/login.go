package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/auth"
	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		username     string
		password     string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the loyalty service",
		Long: `Obtain an access token and save it in ~/.loyalty/config.yml.

With --client-id the client credentials grant is used, otherwise the
password grant. Missing secrets are prompted for when stdin is a terminal.
Secrets are never saved; the refresh token is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api := viper.GetString(KeyAPI)
			if api == "" {
				return constants.ErrNoAPIConfigured
			}

			var err error

			if clientID != "" {
				if clientSecret == "" {
					clientSecret, err = promptSecret(cmd, "Client secret: ")
					if err != nil {
						return err
					}
				}
			} else {
				if username == "" {
					username, err = promptLine(cmd, "Username: ")
					if err != nil {
						return err
					}
				}

				if password == "" {
					password, err = promptSecret(cmd, "Password: ")
					if err != nil {
						return err
					}
				}
			}

			viper.Set(KeyClientID, clientID)

			manager := auth.NewPersistingTokenManager(&auth.OAuth2Config{
				TokenURL:     tokenURL(loadConfig()),
				ClientID:     clientID,
				ClientSecret: clientSecret,
				Username:     username,
				Password:     password,
			}, NewConfigPersister(), api, nil, nil)

			_, err = manager.GetToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to log in: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s\n", api)

			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username for the password grant")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password for the password grant")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget saved tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set(KeyToken, "")
			viper.Set(KeyRefreshToken, "")
			viper.Set(KeyTokenExpiresAt, "")

			err := saveConfig(loadConfig())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo from a terminal and falls back to a
// plain line read otherwise.
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(int(os.Stdin.Fd())) {
		return promptLine(cmd, prompt)
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)

	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(cmd.ErrOrStderr())

	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return string(secret), nil
}
