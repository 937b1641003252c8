package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/airpurifier2mqtt/internal/constants"
	"github.com/benmeehan/airpurifier2mqtt/internal/metrics_collectors"
	"github.com/benmeehan/airpurifier2mqtt/internal/models"
	"github.com/benmeehan/airpurifier2mqtt/pkg/mqtt"
)

// HeartbeatService publishes the bridge availability on a retained topic.
// The broker publishes the offline status itself if the bridge dies.
type HeartbeatService struct {
	connector mqtt.Connector
	topic     string
	clientID  string
	devices   []string
	interval  time.Duration
	timeout   time.Duration
	metrics   *metrics_collectors.MetricsRegistry
	logger    zerolog.Logger
}

// NewHeartbeatService initializes a new HeartbeatService.
func NewHeartbeatService(connector mqtt.Connector, topic, clientID string, devices []string, interval, timeout time.Duration,
	metrics *metrics_collectors.MetricsRegistry, logger zerolog.Logger) *HeartbeatService {

	return &HeartbeatService{
		connector: connector,
		topic:     topic,
		clientID:  clientID,
		devices:   devices,
		interval:  interval,
		timeout:   timeout,
		metrics:   metrics,
		logger:    logger,
	}
}

func (h *HeartbeatService) Name() string {
	return "heartbeat"
}

// Run publishes a heartbeat every interval until ctx is cancelled, then
// publishes the offline status.
func (h *HeartbeatService) Run(ctx context.Context) error {
	will, err := json.Marshal(models.Heartbeat{
		Status:    constants.StatusOffline,
		ClientID:  h.clientID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	client, err := h.connector.Connect(ctx, constants.RoleHeartbeat, &mqtt.Will{
		Topic:    h.topic,
		Payload:  will,
		QOS:      constants.QOSAtMostOnce,
		Retained: true,
	}, nil)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqtt.DisconnectQuiesce)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info().Str("topic", h.topic).Dur("interval", h.interval).Msg("HeartbeatService started")
	h.publish(ctx, client, h.online(ctx))

	for {
		select {
		case <-ticker.C:
			h.publish(ctx, client, h.online(ctx))

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), h.timeout)
			h.publish(shutdownCtx, client, models.Heartbeat{
				Status:    constants.StatusOffline,
				ClientID:  h.clientID,
				Timestamp: time.Now().UTC(),
			})
			cancel()
			h.logger.Info().Msg("HeartbeatService stopping gracefully")
			return ctx.Err()
		}
	}
}

func (h *HeartbeatService) online(ctx context.Context) models.Heartbeat {
	hb := models.Heartbeat{
		Status:    constants.StatusOnline,
		ClientID:  h.clientID,
		Timestamp: time.Now().UTC(),
		Devices:   h.devices,
	}
	if h.metrics != nil {
		h.metrics.Collect(ctx, &hb)
	}
	return hb
}

// publish sends one heartbeat. Failures are logged, never returned.
func (h *HeartbeatService) publish(ctx context.Context, client mqtt.MQTTClient, hb models.Heartbeat) {
	payload, err := json.Marshal(hb)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to serialize heartbeat message")
		return
	}

	token := client.Publish(h.topic, constants.QOSAtMostOnce, true, payload)
	if err := mqtt.WaitToken(ctx, token, h.timeout); err != nil {
		h.logger.Error().Err(err).Msg("Failed to publish heartbeat message")
		return
	}
	h.logger.Debug().Str("status", hb.Status).Msg("Heartbeat published successfully")
}
