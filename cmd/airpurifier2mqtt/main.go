package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/benmeehan/airpurifier2mqtt/internal/constants"
	"github.com/benmeehan/airpurifier2mqtt/internal/service_registry"
	"github.com/benmeehan/airpurifier2mqtt/internal/services"
	"github.com/benmeehan/airpurifier2mqtt/internal/utils"
	"github.com/benmeehan/airpurifier2mqtt/pkg/airpurifier"
	"github.com/benmeehan/airpurifier2mqtt/pkg/file"
	"github.com/benmeehan/airpurifier2mqtt/pkg/mqtt"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(configPath, fileClient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "airpurifier2mqtt: %v\n", err)
		return err
	}

	loggers := utils.NewLoggerFactory(os.Stdout, config.LogFormat, config.Logging)
	logger := loggers.Logger(constants.LoggerRoot)

	// Generate a unique MQTT Client ID by appending a UUID
	clientID := config.MQTT.Client.ClientID + "-" + uuid.New().String()
	logger.Info().Str("client_id", clientID).Int("devices", len(config.Devices)).Msg("Starting bridge")

	connector := mqtt.NewMqttService(mqtt.Options{
		URI:           config.MQTT.Client.URI,
		ClientID:      clientID,
		CleanSession:  config.MQTT.Client.CleanSession,
		CACertificate: config.MQTT.Client.CACertificate,
		Username:      config.MQTT.Client.Username,
		Password:      config.MQTT.Client.Password,
	}, fileClient, loggers.Logger(constants.LoggerRoot+".mqtt"))

	pool := utils.NewWorkerPool(max(2, 2*len(config.Devices)))

	serviceRegistry := service_registry.NewServiceRegistry(connector, pool, loggers,
		func(cfg utils.DeviceConfig) (services.Purifier, error) {
			return airpurifier.New(cfg.IP, cfg.Token, cfg.Timeout.Std())
		})

	if err := serviceRegistry.RegisterServices(config, clientID); err != nil {
		logger.Error().Err(err).Msg("Failed to register services")
		pool.Shutdown()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = serviceRegistry.Run(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info().Msg("Shutting down gracefully")
		return nil
	}
	return err
}
