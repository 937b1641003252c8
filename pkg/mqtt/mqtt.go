package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/benmeehan/airpurifier2mqtt/pkg/file"
)

const (
	defaultConnectTimeout = 10 * time.Second

	// DisconnectQuiesce is the time in milliseconds granted to pending work on disconnect.
	DisconnectQuiesce = 250

	defaultKeepAlive = 60 * time.Second
)

// MQTTClient defines the interface for an MQTT client.
type MQTTClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	Disconnect(quiesce uint)
}

// OnConnectHandler runs after every successful connection, reconnects included.
// The broker forgets subscriptions of a clean session, so they are restored here.
type OnConnectHandler func(client MQTTClient)

// Connector opens broker connections. Each task owns the connection it opened.
type Connector interface {
	Connect(ctx context.Context, role string, will *Will, onConnect OnConnectHandler) (MQTTClient, error)
}

// Options holds broker connection settings.
type Options struct {
	URI           string
	ClientID      string
	CleanSession  bool
	CACertificate string
	Username      string
	Password      string
}

// Will is a Last Will and Testament registered with the connection.
type Will struct {
	Topic    string
	Payload  []byte
	QOS      byte
	Retained bool
}

// MqttService provides methods for MQTT operations.
type MqttService struct {
	options    Options
	fileClient file.FileOperations
	logger     zerolog.Logger

	newClient func(opts *mqtt.ClientOptions) MQTTClient
}

// NewMqttService creates a new MqttService instance.
func NewMqttService(options Options, fileClient file.FileOperations, logger zerolog.Logger) *MqttService {
	return &MqttService{
		options:    options,
		fileClient: fileClient,
		logger:     logger,
		newClient: func(opts *mqtt.ClientOptions) MQTTClient {
			return mqtt.NewClient(opts)
		},
	}
}

// Connect opens a connection identified as "<client id>-<role>" and waits until
// the broker accepts it. onConnect may be nil.
func (s *MqttService) Connect(ctx context.Context, role string, will *Will, onConnect OnConnectHandler) (MQTTClient, error) {
	opts, err := s.clientOptions(role, will, onConnect)
	if err != nil {
		return nil, err
	}

	client := s.newClient(opts)
	if err := WaitToken(ctx, client.Connect(), defaultConnectTimeout); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, s.options.URI, err)
	}

	s.logger.Info().Str("broker", s.options.URI).Str("client_id", opts.ClientID).Msg("Connected to MQTT broker")
	return client, nil
}

func (s *MqttService) clientOptions(role string, will *Will, onConnect OnConnectHandler) (*mqtt.ClientOptions, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.options.URI)

	clientID := s.options.ClientID
	if role != "" {
		clientID += "-" + role
	}
	opts.SetClientID(clientID)
	opts.SetCleanSession(s.options.CleanSession)

	if s.options.Username != "" {
		opts.SetUsername(s.options.Username)
		opts.SetPassword(s.options.Password)
	}

	if s.options.CACertificate != "" {
		tlsConfig, err := s.tlsConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	if will != nil {
		opts.SetBinaryWill(will.Topic, will.Payload, will.QOS, will.Retained)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn().Err(err).Str("client_id", clientID).Msg("MQTT connection lost, reconnecting")
	})
	if onConnect != nil {
		opts.SetOnConnectHandler(func(c mqtt.Client) {
			onConnect(c)
		})
	}

	return opts, nil
}

// tlsConfig trusts the configured CA certificate.
func (s *MqttService) tlsConfig() (*tls.Config, error) {
	caCert, err := s.fileClient.ReadFileRaw(s.options.CACertificate)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCACertificate, s.options.CACertificate)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}
