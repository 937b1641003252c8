package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
	"github.com/benmeehan/airpurifier2mqtt/internal/state_managers"
	"github.com/benmeehan/airpurifier2mqtt/internal/utils"
	"github.com/benmeehan/airpurifier2mqtt/pkg/airpurifier"
)

// PollerService periodically reads one device and queues its status for publishing.
// A pending refresh cuts the wait between polls short.
type PollerService struct {
	device   string
	reader   StatusReader
	interval time.Duration
	retry    *utils.RetryPolicy[*airpurifier.Status]
	refresh  *state_managers.RefreshSignal
	queue    *state_managers.StatusQueue
	logger   zerolog.Logger
}

// NewPollerService initializes a new PollerService.
func NewPollerService(device string, reader StatusReader, interval time.Duration,
	retry *utils.RetryPolicy[*airpurifier.Status], refresh *state_managers.RefreshSignal,
	queue *state_managers.StatusQueue, logger zerolog.Logger) *PollerService {

	return &PollerService{
		device:   device,
		reader:   reader,
		interval: interval,
		retry:    retry,
		refresh:  refresh,
		queue:    queue,
		logger:   logger,
	}
}

func (p *PollerService) Name() string {
	return "poller." + p.device
}

// Run polls until ctx is cancelled.
func (p *PollerService) Run(ctx context.Context) error {
	p.logger.Info().Dur("interval", p.interval).Msg("Polling started")

	for {
		if p.refresh.IsSet() {
			p.logger.Debug().Msg("Polling forced")
		}

		if err := p.poll(ctx); err != nil {
			return err
		}

		p.refresh.Clear()
		if _, err := p.refresh.Wait(ctx, p.interval); err != nil {
			return err
		}
	}
}

// poll reads the device once. A read that fails after every retry is skipped.
func (p *PollerService) poll(ctx context.Context) error {
	status, err := p.retry.Do(ctx, "status", p.reader.Status)
	if err != nil {
		return err
	}
	if status == nil {
		return nil
	}

	p.logger.Debug().
		Str("power", status.PowerState()).
		Str("mode", status.Mode.String()).
		Int("aqi", status.AQI).
		Msg("Status received")

	if p.queue.Full() {
		p.logger.Warn().Int("capacity", p.queue.Cap()).Msg("Status queue is full. Polling will be suspended")
	}
	return p.queue.Put(ctx, models.DeviceStatus{Name: p.device, Status: *status})
}
