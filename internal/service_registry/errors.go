package service_registry

import "errors"

var (
	// ErrTaskExited is returned when a service returns without an error.
	// Services are expected to run until cancelled, so this still stops the bridge.
	ErrTaskExited = errors.New("service exited")

	// ErrTaskPanicked is returned when a service panics.
	ErrTaskPanicked = errors.New("service panicked")
)
