package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no URL or domain is specified.
	ErrNoTarget = errors.New("no target specified: provide one or more URLs")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when the request delay is negative.
	// A delay of zero disables pacing; negative values are meaningless.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidRetries is returned when the retry bound is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")
)
