package utils

import "errors"

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrConfigRead is returned when the configuration file cannot be read or decoded.
	ErrConfigRead = errors.New("failed to read configuration")

	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPoolClosed is returned when submitting to a shut down worker pool.
	ErrPoolClosed = errors.New("worker pool is shut down")
)
