package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/constants"
)

// Common string constants used throughout the commands package.
const (
	NotSet = "(not set)"
	Masked = "***"

	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"

	defaultJSONIndent = 2
	timeLayout        = "2006-01-02 15:04"
)

// Static errors used by the commands.
var (
	ErrUnknownConfigKey = errors.New("unknown configuration key")
	ErrNotPositive      = errors.New("value must be a positive integer")
	ErrUnknownTier      = errors.New("unknown tier")
)

// outputFormat returns the configured format. Without one, terminals get
// a table and pipes get JSON.
func outputFormat() (string, error) {
	output := viper.GetString(KeyOutput)
	if output == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return OutputFormatTable, nil
		}

		return OutputFormatJSON, nil
	}

	err := validateOutput(output)
	if err != nil {
		return "", err
	}

	return output, nil
}

func validateOutput(output string) error {
	switch output {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %q (use table, json or yaml)", constants.ErrInvalidOutput, output)
	}
}

func parsePositive(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotPositive, value)
	}

	return n, nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}
