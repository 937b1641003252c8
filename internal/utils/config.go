package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/benmeehan/airpurifier2mqtt/internal/constants"
	"github.com/benmeehan/airpurifier2mqtt/pkg/file"
	"github.com/benmeehan/airpurifier2mqtt/pkg/mqtt"
)

// Config represents the structure of the configuration file.
type Config struct {
	Devices []DeviceConfig `yaml:"devices"`

	MQTT MQTTConfig `yaml:"mqtt"`

	Logging   map[string]string `yaml:"logging"`    // Logger name to level, "root" is the fallback
	LogFormat string            `yaml:"log_format"` // "json" (default) or "console"
}

// DeviceConfig describes one purifier.
type DeviceConfig struct {
	Name    string        `yaml:"name"`  // Unique device name, used in topics
	IP      string        `yaml:"ip"`    // Device address, port 54321 when omitted
	Token   string        `yaml:"token"` // 32 hex character miIO token
	Timeout Duration      `yaml:"timeout"`
	Polling PollingConfig `yaml:"polling"`
}

// PollingConfig controls the status poll loop of one device.
type PollingConfig struct {
	Interval      Duration `yaml:"interval"`       // Time between polls
	Retries       *int     `yaml:"retries"`        // Retries after a failed poll
	RetryInterval Duration `yaml:"retry_interval"` // Delay between retries
}

// RetryCount returns the configured retries or the default.
func (p PollingConfig) RetryCount() int {
	if p.Retries == nil {
		return constants.DefaultRetries
	}
	return *p.Retries
}

// MQTTConfig holds broker connection settings.
type MQTTConfig struct {
	Client struct {
		URI           string `yaml:"uri"`            // Broker URI, e.g. tcp://localhost:1883
		CleanSession  bool   `yaml:"cleansession"`   // Start without a persistent session
		ClientID      string `yaml:"client_id"`      // MQTT client ID prefix
		CACertificate string `yaml:"ca_certificate"` // Optional path to a CA certificate, enables TLS
		Username      string `yaml:"username"`
		Password      string `yaml:"password"`
	} `yaml:"client"`

	TopicPrefix string `yaml:"topic_prefix"` // Prepended to every topic

	Heartbeat struct {
		Enabled  bool     `yaml:"enabled"`  // Publish bridge availability
		Interval Duration `yaml:"interval"` // Interval between heartbeats
	} `yaml:"heartbeat"`
}

// Duration accepts either a Go duration string ("90s", "2m") or a plain number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}

	raw := strings.TrimSpace(value.Value)
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", value.Line, raw)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LoadConfig loads the YAML configuration from the specified file,
// applies defaults and validates it.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	exists, err := fileClient.IsFileExists(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigRead, filename, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, filename)
	}

	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigRead, filename, err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills in every optional setting left empty.
func (c *Config) ApplyDefaults() {
	for i := range c.Devices {
		d := &c.Devices[i]
		if d.Timeout <= 0 {
			d.Timeout = Duration(constants.DefaultDeviceTimeout)
		}
		if d.Polling.Interval <= 0 {
			d.Polling.Interval = Duration(constants.DefaultPollingInterval)
		}
		if d.Polling.RetryInterval <= 0 {
			d.Polling.RetryInterval = Duration(constants.DefaultRetryInterval)
		}
	}

	if c.MQTT.Client.ClientID == "" {
		c.MQTT.Client.ClientID = constants.LoggerRoot
	}
	if c.MQTT.Heartbeat.Interval <= 0 {
		c.MQTT.Heartbeat.Interval = Duration(constants.DefaultHeartbeatInterval)
	}
}

// Validate checks the configuration once before anything starts.
func (c *Config) Validate() error {
	if len(c.Devices) == 0 {
		return fmt.Errorf("%w: no devices configured", ErrInvalidConfig)
	}

	names := make([]string, 0, len(c.Devices))
	for i, d := range c.Devices {
		switch {
		case d.Name == "":
			return fmt.Errorf("%w: device #%d has no name", ErrInvalidConfig, i+1)
		case d.IP == "":
			return fmt.Errorf("%w: device %q has no ip", ErrInvalidConfig, d.Name)
		case d.Token == "":
			return fmt.Errorf("%w: device %q has no token", ErrInvalidConfig, d.Name)
		case d.Name == mqtt.BridgeSegment:
			return fmt.Errorf("%w: device name %q is reserved", ErrInvalidConfig, d.Name)
		case strings.ContainsAny(d.Name, "/+#"):
			return fmt.Errorf("%w: device name %q contains a topic separator or wildcard", ErrInvalidConfig, d.Name)
		}
		names = append(names, d.Name)
	}
	if dup := Duplicates(names); len(dup) > 0 {
		return fmt.Errorf("%w: duplicate device names %v", ErrInvalidConfig, dup)
	}

	if c.MQTT.Client.URI == "" {
		return fmt.Errorf("%w: mqtt.client.uri is required", ErrInvalidConfig)
	}
	if strings.Trim(c.MQTT.TopicPrefix, "/") == "" {
		return fmt.Errorf("%w: mqtt.topic_prefix is required", ErrInvalidConfig)
	}

	switch c.LogFormat {
	case "", LogFormatJSON, LogFormatConsole:
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	for name, level := range c.Logging {
		if _, err := ParseLevel(level); err != nil {
			return fmt.Errorf("%w: logging.%s: %v", ErrInvalidConfig, name, err)
		}
	}

	return nil
}

// DeviceNames returns the configured device names in order.
func (c *Config) DeviceNames() []string {
	names := make([]string, len(c.Devices))
	for i, d := range c.Devices {
		names[i] = d.Name
	}
	return names
}
