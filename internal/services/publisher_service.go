package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/airpurifier2mqtt/internal/constants"
	"github.com/benmeehan/airpurifier2mqtt/internal/models"
	"github.com/benmeehan/airpurifier2mqtt/internal/state_managers"
	"github.com/benmeehan/airpurifier2mqtt/pkg/mqtt"
)

// PublisherService drains the status queue and publishes each snapshot on its device's state topic.
type PublisherService struct {
	connector      mqtt.Connector
	topics         mqtt.Topics
	queue          *state_managers.StatusQueue
	publishTimeout time.Duration
	logger         zerolog.Logger
}

// NewPublisherService initializes a new PublisherService.
func NewPublisherService(connector mqtt.Connector, topics mqtt.Topics, queue *state_managers.StatusQueue,
	publishTimeout time.Duration, logger zerolog.Logger) *PublisherService {

	return &PublisherService{
		connector:      connector,
		topics:         topics,
		queue:          queue,
		publishTimeout: publishTimeout,
		logger:         logger,
	}
}

func (p *PublisherService) Name() string {
	return "publisher"
}

// Run connects and publishes until ctx is cancelled. A failed connection is returned.
func (p *PublisherService) Run(ctx context.Context) error {
	client, err := p.connector.Connect(ctx, constants.RolePublisher, nil, nil)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqtt.DisconnectQuiesce)

	for {
		snapshot, err := p.queue.Get(ctx)
		if err != nil {
			return err
		}

		if err := p.publish(ctx, client, snapshot); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error().Err(err).Str("device", snapshot.Name).Msg("Failed to publish status")
		}
	}
}

func (p *PublisherService) publish(ctx context.Context, client mqtt.MQTTClient, snapshot models.DeviceStatus) error {
	payload, err := models.EncodeTelemetry(snapshot)
	if err != nil {
		return err
	}

	topic := p.topics.State(snapshot.Name)
	p.logger.Debug().Str("topic", topic).RawJSON("payload", payload).Msg("Publishing")

	token := client.Publish(topic, constants.QOSAtMostOnce, false, payload)
	if err := mqtt.WaitToken(ctx, token, p.publishTimeout); err != nil {
		return fmt.Errorf("%w: %s: %w", mqtt.ErrPublishFailed, topic, err)
	}
	return nil
}
