package mqtt

import "strings"

const (
	stateSuffix = "state"
	setSuffix   = "set"

	// BridgeSegment takes the place of a device name on the bridge's own topics.
	BridgeSegment = "bridge"
)

// Topics builds the bridge topics under a configured prefix.
//
//	topics := mqtt.Topics{Prefix: "airpurifier"}
//	topics.State("bedroom") // "airpurifier/bedroom/state"
type Topics struct {
	Prefix string
}

// State returns the telemetry topic of device.
func (t Topics) State(device string) string {
	return t.Prefix + "/" + device + "/" + stateSuffix
}

// Set returns the command topic of device.
func (t Topics) Set(device string) string {
	return t.Prefix + "/" + device + "/" + setSuffix
}

// CommandWildcard returns the subscription covering every device's command topic.
func (t Topics) CommandWildcard() string {
	return t.Prefix + "/+/" + setSuffix
}

// Heartbeat returns the bridge availability topic.
func (t Topics) Heartbeat() string {
	return t.Prefix + "/" + BridgeSegment + "/" + stateSuffix
}

// DeviceFromTopic extracts the device name from a topic below the prefix:
// the prefix is stripped, leading slashes trimmed and the first segment returned.
func (t Topics) DeviceFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, t.Prefix) {
		return "", false
	}
	rest := strings.TrimLeft(topic[len(t.Prefix):], "/")
	device, _, _ := strings.Cut(rest, "/")
	return device, device != ""
}
