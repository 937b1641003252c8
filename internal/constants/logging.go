package constants

// Logger names. Per-device loggers append ".<device name>".
const (
	LoggerRoot          = "airpurifier2mqtt"
	LoggerPublisher     = "airpurifier2mqtt.mqtt.publisher"
	LoggerSubscriber    = "airpurifier2mqtt.mqtt.subscriber"
	LoggerHeartbeat     = "airpurifier2mqtt.mqtt.heartbeat"
	LoggerStatePrefix   = "airpurifier2mqtt.state"
	LoggerCommandPrefix = "airpurifier2mqtt.command"

	// LoggerRootKey is the logging config key that sets the fallback level.
	LoggerRootKey = "root"
)
