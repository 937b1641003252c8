package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/airpurifier2mqtt/pkg/file"
	"github.com/benmeehan/airpurifier2mqtt/tests/mocks"
)

const validConfig = `
devices:
  - name: bedroom
    ip: 192.168.1.10
    token: 0123456789abcdef0123456789abcdef
    polling:
      interval: 60
      retries: 2
      retry_interval: 5s
  - name: office
    ip: 192.168.1.11
    token: 00112233445566778899aabbccddeeff
mqtt:
  client:
    uri: tcp://localhost:1883
    cleansession: true
  topic_prefix: airpurifier
  heartbeat:
    enabled: true
logging:
  root: warning
  airpurifier2mqtt.mqtt: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, validConfig), file.NewFileService())
	require.NoError(t, err)

	require.Len(t, config.Devices, 2)
	bedroom := config.Devices[0]
	assert.Equal(t, 60*time.Second, bedroom.Polling.Interval.Std())
	assert.Equal(t, 5*time.Second, bedroom.Polling.RetryInterval.Std())
	assert.Equal(t, 2, bedroom.Polling.RetryCount())

	office := config.Devices[1]
	assert.Equal(t, 120*time.Second, office.Polling.Interval.Std())
	assert.Equal(t, 10*time.Second, office.Polling.RetryInterval.Std())
	assert.Equal(t, 0, office.Polling.RetryCount())
	assert.Equal(t, 5*time.Second, office.Timeout.Std())

	assert.Equal(t, "airpurifier2mqtt", config.MQTT.Client.ClientID)
	assert.True(t, config.MQTT.Client.CleanSession)
	assert.Equal(t, 60*time.Second, config.MQTT.Heartbeat.Interval.Std())
	assert.Equal(t, []string{"bedroom", "office"}, config.DeviceNames())
}

func TestLoadConfig_ReadError(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("IsFileExists", "config.yaml").Return(true, nil)
	fileClient.On("ReadYamlFile", "config.yaml", mock.Anything).Return(errors.New("permission denied"))

	_, err := LoadConfig("config.yaml", fileClient)

	assert.ErrorIs(t, err, ErrConfigRead)
	fileClient.AssertExpectations(t)
}

func TestLoadConfig_NotFound(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("IsFileExists", "missing.yaml").Return(false, nil)

	_, err := LoadConfig("missing.yaml", fileClient)

	assert.ErrorIs(t, err, ErrConfigNotFound)
	assert.ErrorContains(t, err, "missing.yaml")
	fileClient.AssertNotCalled(t, "ReadYamlFile", mock.Anything, mock.Anything)
}

func TestLoadConfig_MissingFileOnDisk(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), file.NewFileService())
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadConfig_UnknownField(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, validConfig+"bogus: 1\n"), file.NewFileService())
	assert.ErrorIs(t, err, ErrConfigRead)
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		var c Config
		c.Devices = []DeviceConfig{{Name: "a", IP: "10.0.0.1", Token: "t"}}
		c.MQTT.Client.URI = "tcp://localhost:1883"
		c.MQTT.TopicPrefix = "airpurifier"
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no devices", func(c *Config) { c.Devices = nil }},
		{"missing name", func(c *Config) { c.Devices[0].Name = "" }},
		{"missing ip", func(c *Config) { c.Devices[0].IP = "" }},
		{"missing token", func(c *Config) { c.Devices[0].Token = "" }},
		{"duplicate names", func(c *Config) { c.Devices = append(c.Devices, c.Devices[0]) }},
		{"reserved name", func(c *Config) { c.Devices[0].Name = "bridge" }},
		{"wildcard in name", func(c *Config) { c.Devices[0].Name = "a/+" }},
		{"missing uri", func(c *Config) { c.MQTT.Client.URI = "" }},
		{"empty prefix", func(c *Config) { c.MQTT.TopicPrefix = "/" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"bad log level", func(c *Config) { c.Logging = map[string]string{"root": "loud"} }},
	}

	valid := base()
	require.NoError(t, valid.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestDuplicates(t *testing.T) {
	assert.Empty(t, Duplicates([]string{"a", "b"}))
	assert.Equal(t, []string{"a", "c"}, Duplicates([]string{"c", "a", "b", "a", "c", "c"}))
}
