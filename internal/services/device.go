package services

import "github.com/benmeehan/airpurifier2mqtt/pkg/airpurifier"

// StatusReader reads one status snapshot from a device. Calls block on device I/O.
type StatusReader interface {
	Status() (*airpurifier.Status, error)
}

// Controller applies settings to a device. Calls block on device I/O.
type Controller interface {
	On() error
	Off() error
	SetMode(mode airpurifier.OperationMode) error
	SetFavoriteLevel(level int) error
}

// Purifier is a device that can be both polled and controlled.
type Purifier interface {
	StatusReader
	Controller
}
