package service_registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/benmeehan/airpurifier2mqtt/internal/constants"
	"github.com/benmeehan/airpurifier2mqtt/internal/metrics_collectors"
	"github.com/benmeehan/airpurifier2mqtt/internal/models"
	"github.com/benmeehan/airpurifier2mqtt/internal/registry"
	"github.com/benmeehan/airpurifier2mqtt/internal/services"
	"github.com/benmeehan/airpurifier2mqtt/internal/state_managers"
	"github.com/benmeehan/airpurifier2mqtt/internal/utils"
	"github.com/benmeehan/airpurifier2mqtt/pkg/airpurifier"
	"github.com/benmeehan/airpurifier2mqtt/pkg/mqtt"
)

// DeviceFactory opens the device described by cfg.
type DeviceFactory func(cfg utils.DeviceConfig) (services.Purifier, error)

// ServiceRegistry builds every service of the bridge and supervises them.
// The first service to stop, for whatever reason, stops all the others.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	connector   mqtt.Connector
	pool        *utils.WorkerPool
	loggers     *utils.LoggerFactory
	newDevice   DeviceFactory
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(connector mqtt.Connector, pool *utils.WorkerPool, loggers *utils.LoggerFactory,
	newDevice DeviceFactory) *ServiceRegistry {
	return &ServiceRegistry{
		services:  make(map[string]registry.Service),
		connector: connector,
		pool:      pool,
		loggers:   loggers,
		newDevice: newDevice,
		Logger:    loggers.Logger(constants.LoggerRoot),
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(svc registry.Service) {
	name := svc.Name()
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Debug().Msgf("Registered service: %s", name)
}

// ServiceNames returns the registered services in registration order.
func (sr *ServiceRegistry) ServiceNames() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// RegisterServices wires the queues, refresh signals and services for config.
// clientID is the final MQTT client ID, reported by the heartbeat.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, clientID string) error {
	topics := mqtt.Topics{Prefix: config.MQTT.TopicPrefix}
	statusQueue := state_managers.NewQueue[models.DeviceStatus](constants.StatusQueueCapacityPerDevice * len(config.Devices))
	router := state_managers.NewCommandRouter()

	for _, deviceCfg := range config.Devices {
		device, err := sr.newDevice(deviceCfg)
		if err != nil {
			return fmt.Errorf("device %q: %w", deviceCfg.Name, err)
		}

		commandQueue := state_managers.NewQueue[models.Command](constants.CommandQueueCapacity)
		if err := router.Register(deviceCfg.Name, commandQueue); err != nil {
			return err
		}
		refresh := state_managers.NewRefreshSignal()

		stateLogger := sr.loggers.Logger(constants.LoggerStatePrefix + "." + deviceCfg.Name)
		commandLogger := sr.loggers.Logger(constants.LoggerCommandPrefix + "." + deviceCfg.Name)

		sr.RegisterService(services.NewPollerService(
			deviceCfg.Name,
			device,
			deviceCfg.Polling.Interval.Std(),
			utils.NewRetryPolicy[*airpurifier.Status](
				deviceCfg.Polling.RetryCount(),
				deviceCfg.Polling.RetryInterval.Std(),
				nil,
				sr.pool,
				stateLogger,
			),
			refresh,
			statusQueue,
			stateLogger,
		))
		sr.RegisterService(services.NewCommanderService(
			deviceCfg.Name,
			device,
			commandQueue,
			refresh,
			utils.NewRetryPolicy(0, 0, false, sr.pool, commandLogger),
			commandLogger,
		))
	}

	sr.RegisterService(services.NewPublisherService(
		sr.connector,
		topics,
		statusQueue,
		constants.DefaultPublishTimeout,
		sr.loggers.Logger(constants.LoggerPublisher),
	))
	sr.RegisterService(services.NewSubscriberService(
		sr.connector,
		topics,
		router,
		constants.DefaultPublishTimeout,
		sr.loggers.Logger(constants.LoggerSubscriber),
	))

	if config.MQTT.Heartbeat.Enabled {
		heartbeatLogger := sr.loggers.Logger(constants.LoggerHeartbeat)
		sr.RegisterService(services.NewHeartbeatService(
			sr.connector,
			topics.Heartbeat(),
			clientID,
			config.DeviceNames(),
			config.MQTT.Heartbeat.Interval.Std(),
			constants.DefaultPublishTimeout,
			sr.heartbeatMetrics(heartbeatLogger),
			heartbeatLogger,
		))
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", sr.serviceKeys)
	return nil
}

func (sr *ServiceRegistry) heartbeatMetrics(logger zerolog.Logger) *metrics_collectors.MetricsRegistry {
	metrics := metrics_collectors.NewMetricsRegistry(logger,
		metrics_collectors.NewUptimeMetricCollector(time.Now()),
		&metrics_collectors.GoroutineMetricCollector{},
	)

	proc, err := metrics_collectors.NewProcessMetricCollector()
	if err != nil {
		logger.Warn().Err(err).Msg("Process metrics unavailable")
		return metrics
	}
	metrics.Register(proc)
	return metrics
}

// Run starts every registered service and blocks until the first one returns.
// The others are then cancelled and waited for, the worker pool is shut down
// and the first error is returned.
func (sr *ServiceRegistry) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		g.Go(func() error {
			return sr.runService(gctx, svc)
		})
	}
	sr.Logger.Info().Int("services", len(sr.serviceKeys)).Msg("All services started")

	err := g.Wait()
	sr.pool.Shutdown()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		sr.Logger.Info().Msg("All services stopped")
	default:
		sr.Logger.Error().Err(err).Msg("Finishing because of error")
	}
	return err
}

// runService runs one service, turning a panic or an unexpected return into an error.
func (sr *ServiceRegistry) runService(ctx context.Context, svc registry.Service) (err error) {
	name := svc.Name()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTaskPanicked, name, r)
		}
	}()

	sr.Logger.Debug().Msgf("Starting service: %s", name)
	err = svc.Run(ctx)

	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrTaskExited, name)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		sr.Logger.Debug().Msgf("Service stopped: %s", name)
		return err
	default:
		sr.Logger.Error().Err(err).Msgf("Service failed: %s", name)
		return fmt.Errorf("%s: %w", name, err)
	}
}
