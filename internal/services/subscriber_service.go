package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/benmeehan/airpurifier2mqtt/internal/constants"
	"github.com/benmeehan/airpurifier2mqtt/internal/models"
	"github.com/benmeehan/airpurifier2mqtt/internal/state_managers"
	"github.com/benmeehan/airpurifier2mqtt/pkg/mqtt"
)

// inboxSize buffers messages between the MQTT callback and the routing loop.
const inboxSize = 64

// SubscriberService receives command messages for every device and routes
// each to that device's command queue. It never blocks on a full queue.
type SubscriberService struct {
	connector        mqtt.Connector
	topics           mqtt.Topics
	router           *state_managers.CommandRouter
	subscribeTimeout time.Duration
	logger           zerolog.Logger
}

// NewSubscriberService initializes a new SubscriberService.
func NewSubscriberService(connector mqtt.Connector, topics mqtt.Topics, router *state_managers.CommandRouter,
	timeout time.Duration, logger zerolog.Logger) *SubscriberService {

	return &SubscriberService{
		connector:        connector,
		topics:           topics,
		router:           router,
		subscribeTimeout: timeout,
		logger:           logger,
	}
}

func (s *SubscriberService) Name() string {
	return "subscriber"
}

// Run subscribes and routes messages until ctx is cancelled. The subscription is
// restored after every reconnect. Connection and subscription failures are returned.
func (s *SubscriberService) Run(ctx context.Context) error {
	inbox := make(chan MQTT.Message, inboxSize)
	topic := s.topics.CommandWildcard()
	handler := func(_ MQTT.Client, msg MQTT.Message) {
		select {
		case inbox <- msg:
		case <-ctx.Done():
		}
	}

	// The initial subscription is made below. A repeated subscribe on the
	// first connection replaces the existing one on the broker.
	var connected atomic.Bool
	resubscribeErr := make(chan error, 1)
	onConnect := func(client mqtt.MQTTClient) {
		if !connected.Load() {
			return
		}
		if err := s.subscribe(ctx, client, topic, handler); err != nil {
			select {
			case resubscribeErr <- err:
			default:
			}
			return
		}
		s.logger.Info().Str("topic", topic).Msg("Restored command subscription after reconnect")
	}

	client, err := s.connector.Connect(ctx, constants.RoleSubscriber, nil, onConnect)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqtt.DisconnectQuiesce)
	connected.Store(true)

	if err := s.subscribe(ctx, client, topic, handler); err != nil {
		return err
	}
	s.logger.Info().Str("topic", topic).Msg("Subscribed to command topic")

	for {
		select {
		case msg := <-inbox:
			s.HandleMessage(msg.Topic(), msg.Payload())
		case err := <-resubscribeErr:
			s.logger.Error().Err(err).Msg("Lost command subscription")
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *SubscriberService) subscribe(ctx context.Context, client mqtt.MQTTClient, topic string, handler MQTT.MessageHandler) error {
	token := client.Subscribe(topic, constants.QOSAtMostOnce, handler)
	if err := mqtt.WaitToken(ctx, token, s.subscribeTimeout); err != nil {
		return fmt.Errorf("%w: %s: %w", mqtt.ErrSubscribeFailed, topic, err)
	}
	return nil
}

// HandleMessage routes one command message. Errors are logged and the message dropped.
func (s *SubscriberService) HandleMessage(topic string, payload []byte) {
	s.logger.Debug().Str("topic", topic).Bytes("payload", payload).Msg("Got message")

	device, ok := s.topics.DeviceFromTopic(topic)
	if !ok {
		s.logger.Warn().Str("topic", topic).Msg("No device name in topic, message dropped")
		return
	}

	cmd, err := models.ParseCommand(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("device", device).Msg("Invalid command payload, message dropped")
		return
	}

	if err := s.router.Route(device, cmd); err != nil {
		switch {
		case errors.Is(err, state_managers.ErrQueueFull):
			s.logger.Warn().Err(err).Str("device", device).Msg("Command queue is full, command dropped")
		default:
			s.logger.Error().Err(err).Str("device", device).Msg("Command dropped")
		}
	}
}
