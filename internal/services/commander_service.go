package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
	"github.com/benmeehan/airpurifier2mqtt/internal/state_managers"
	"github.com/benmeehan/airpurifier2mqtt/internal/utils"
)

// CommanderService applies queued commands to one device and then asks its
// poller for a fresh status.
type CommanderService struct {
	device     string
	controller Controller
	queue      *state_managers.CommandQueue
	refresh    *state_managers.RefreshSignal
	retry      *utils.RetryPolicy[bool]
	logger     zerolog.Logger

	dispatch map[models.CommandKind]func(models.DeviceCommand) error
}

// NewCommanderService initializes a new CommanderService.
func NewCommanderService(device string, controller Controller, queue *state_managers.CommandQueue,
	refresh *state_managers.RefreshSignal, retry *utils.RetryPolicy[bool], logger zerolog.Logger) *CommanderService {

	c := &CommanderService{
		device:     device,
		controller: controller,
		queue:      queue,
		refresh:    refresh,
		retry:      retry,
		logger:     logger,
	}
	c.dispatch = map[models.CommandKind]func(models.DeviceCommand) error{
		models.CommandPower: func(cmd models.DeviceCommand) error {
			if cmd.Power {
				return c.controller.On()
			}
			return c.controller.Off()
		},
		models.CommandMode: func(cmd models.DeviceCommand) error {
			return c.controller.SetMode(cmd.Mode)
		},
		models.CommandFavoriteLevel: func(cmd models.DeviceCommand) error {
			return c.controller.SetFavoriteLevel(cmd.Level)
		},
	}
	return c
}

func (c *CommanderService) Name() string {
	return "commander." + c.device
}

// Run processes commands until ctx is cancelled.
func (c *CommanderService) Run(ctx context.Context) error {
	c.logger.Info().Msg("Waiting for commands")

	for {
		cmd, err := c.queue.Get(ctx)
		if err != nil {
			return err
		}

		if err := c.process(ctx, cmd); err != nil {
			return err
		}
		c.refresh.Set()
	}
}

// process applies every field of cmd. Invalid or failing fields are logged
// and do not stop the remaining ones.
func (c *CommanderService) process(ctx context.Context, cmd models.Command) error {
	for _, field := range cmd.Fields() {
		deviceCmd, err := models.ValidateField(field, cmd[field])
		if err != nil {
			c.logger.Error().Err(err).Str("field", field).Msg("Command rejected")
			continue
		}

		applied, err := c.retry.Do(ctx, deviceCmd.String(), func() (bool, error) {
			if err := c.apply(deviceCmd); err != nil {
				return false, err
			}
			return true, nil
		})
		if err != nil {
			return err
		}

		if applied {
			c.logger.Info().Str("command", deviceCmd.String()).Msg("Command applied")
		} else {
			c.logger.Error().Str("command", deviceCmd.String()).Msg("Command failed")
		}
	}
	return nil
}

func (c *CommanderService) apply(cmd models.DeviceCommand) error {
	fn, ok := c.dispatch[cmd.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownCommand, cmd.Kind)
	}
	return fn(cmd)
}
