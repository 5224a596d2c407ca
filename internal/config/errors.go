// Package config provides configuration types and defaults for nhk-record.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrMissingSaveDir indicates no output directory was configured.
	ErrMissingSaveDir = errors.New("save directory not set")

	// ErrMissingStreamURL indicates no capture stream was configured.
	ErrMissingStreamURL = errors.New("stream URL not set")

	// ErrInvalidSafetyBuffer indicates a capture padding value outside the valid range.
	ErrInvalidSafetyBuffer = errors.New("safety buffer out of range")

	// ErrInvalidDuration indicates a duration setting outside the valid range.
	ErrInvalidDuration = errors.New("duration setting out of range")

	// ErrInvalidThreadLimit indicates a negative post-process thread limit.
	ErrInvalidThreadLimit = errors.New("thread limit out of range")

	// ErrInvalidRetry indicates an unusable stream retry policy.
	ErrInvalidRetry = errors.New("stream retry policy invalid")

	// ErrInvalidPattern indicates a match pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid match pattern")
)
