package constants

import "errors"

// CLI configuration errors.
var (
	ErrNoAPIConfigured = errors.New("no API endpoint configured, use --api or set LOYALTY_API")
	ErrInvalidOutput   = errors.New("invalid output format")
)

// CLI argument errors.
var (
	ErrIDRequired    = errors.New("resource ID is required")
	ErrEmailRequired = errors.New("--email flag is required")
)
