package constants

import "time"

const (
	// CommandQueueCapacity is the size of each device's inbound command queue.
	CommandQueueCapacity = 64

	// StatusQueueCapacityPerDevice scales the shared outbound status queue with the device count.
	StatusQueueCapacityPerDevice = 3
)

// Command payload keys
const (
	// CommandPower switches the purifier "on" or "off".
	CommandPower = "power"
	// CommandMode selects the operation mode by name.
	CommandMode = "mode"
	// CommandFavoriteLevel sets the favorite fan level.
	CommandFavoriteLevel = "favorite_level"
)

const (
	PowerOn  = "on"
	PowerOff = "off"
)

// Polling defaults applied when a device omits them.
const (
	DefaultPollingInterval = 120 * time.Second
	DefaultRetryInterval   = 10 * time.Second
	DefaultRetries         = 0
	DefaultDeviceTimeout   = 5 * time.Second
)
