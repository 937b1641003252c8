package models

import "errors"

var (
	// ErrMalformedCommand is returned when a command payload is not a JSON object.
	ErrMalformedCommand = errors.New("malformed command payload")

	// ErrUnknownCommand is returned for a property name outside the command table.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrInvalidCommandValue is returned when a known property carries a bad value or type.
	ErrInvalidCommandValue = errors.New("invalid command value")
)
