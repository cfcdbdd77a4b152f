//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	API          string
	ClientID     string
	ClientSecret string
	BinaryPath   string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		API:          os.Getenv("LOYALTY_API"),
		ClientID:     os.Getenv("LOYALTY_CLIENT_ID"),
		ClientSecret: os.Getenv("LOYALTY_CLIENT_SECRET"),
		BinaryPath:   getBinaryPath(),
		Verbose:      os.Getenv("LOYALTY_VERBOSE") == "true",
	}
}

func getBinaryPath() string {
	if path := os.Getenv("LOYALTY_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../loyalty", "./loyalty", "../loyalty"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "loyalty"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.API == "" {
		t.Skip("LOYALTY_API not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("loyalty binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the loyalty binary with an isolated home directory.
type CommandRunner struct {
	config *TestConfig
	home   string
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config: config,
		home:   t.TempDir(),
		t:      t,
	}
}

// Run executes a loyalty command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+runner.home, "LOYALTY_API="+runner.config.API)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON runs a command with JSON output and decodes it into target.
func (runner *CommandRunner) RunJSON(target any, args ...string) error {
	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	if err != nil {
		return fmt.Errorf("%w: %s", err, stderr)
	}

	return json.Unmarshal([]byte(stdout), target)
}

// Login authenticates with client credentials when they are configured.
func (runner *CommandRunner) Login() error {
	if runner.config.ClientID == "" || runner.config.ClientSecret == "" {
		return nil
	}

	_, stderr, err := runner.Run("login",
		"--client-id", runner.config.ClientID,
		"--client-secret", runner.config.ClientSecret)
	if err != nil {
		return fmt.Errorf("failed to log in: %s", stderr)
	}

	return nil
}

// GenerateTestEmail creates a unique member email.
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@integration.test", prefix, time.Now().UnixNano())
}
