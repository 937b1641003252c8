package models

import "github.com/benmeehan/airpurifier2mqtt/pkg/airpurifier"

// DeviceStatus is one status snapshot tagged with the device it was read from.
type DeviceStatus struct {
	Name   string
	Status airpurifier.Status
}
