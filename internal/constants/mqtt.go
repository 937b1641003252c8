package constants

import "time"

const (
	// QOSAtMostOnce is the delivery level used for telemetry, commands and heartbeats.
	QOSAtMostOnce byte = 0

	DefaultHeartbeatInterval = 60 * time.Second
	DefaultPublishTimeout    = 5 * time.Second
)

// Bridge statuses
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Connection roles, appended to the MQTT client ID.
const (
	RolePublisher  = "pub"
	RoleSubscriber = "sub"
	RoleHeartbeat  = "hb"
)
