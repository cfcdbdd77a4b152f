package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GuyPaddock/json-service-framework-sub001/cmd/loyalty/commands"
	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "loyalty",
	Short: "Loyalty programme CLI",
	Long: `A command-line interface for the loyalty programme service.

Browse members, rewards, redemptions and the points ledger of any service
speaking JSON:API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.loyalty/config.yml)")
	flags.StringP("api", "a", "", "API endpoint URL")
	flags.StringP("token", "t", "", "bearer token")
	flags.StringP("output", "o", "", "output format (table, json, yaml); defaults to table on a terminal")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.Int("page-size", 0, "items requested per page")
	flags.Int("page-limit", 0, "maximum pages fetched by list commands (-1 for no limit)")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag(commands.KeyAPI, flags.Lookup("api"))
	_ = viper.BindPFlag(commands.KeyToken, flags.Lookup("token"))
	_ = viper.BindPFlag(commands.KeyOutput, flags.Lookup("output"))
	_ = viper.BindPFlag(commands.KeyVerbose, flags.Lookup("verbose"))
	_ = viper.BindPFlag(commands.KeyPageSize, flags.Lookup("page-size"))
	_ = viper.BindPFlag(commands.KeyPageLimit, flags.Lookup("page-limit"))

	commands.UserAgent = "loyalty-cli/" + version

	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewMembersCommand())
	rootCmd.AddCommand(commands.NewRewardsCommand())
	rootCmd.AddCommand(commands.NewRedemptionsCommand())
	rootCmd.AddCommand(commands.NewTransactionsCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, commands.ConfigDirName)
		if err := os.MkdirAll(configDir, constants.ConfigDirPerm); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("LOYALTY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool(commands.KeyVerbose) {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
