package metrics_collectors

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
)

// MetricsRegistry runs every registered collector in registration order.
type MetricsRegistry struct {
	collectors []MetricCollector
	logger     zerolog.Logger
}

// NewMetricsRegistry creates a new MetricsRegistry instance.
func NewMetricsRegistry(logger zerolog.Logger, collectors ...MetricCollector) *MetricsRegistry {
	return &MetricsRegistry{
		collectors: collectors,
		logger:     logger,
	}
}

// Register adds a new metric collector to the registry.
func (r *MetricsRegistry) Register(collector MetricCollector) {
	r.collectors = append(r.collectors, collector)
}

// Collect fills heartbeat from every collector. A failing collector is logged and skipped.
func (r *MetricsRegistry) Collect(ctx context.Context, heartbeat *models.Heartbeat) {
	for _, c := range r.collectors {
		if err := c.Collect(ctx, heartbeat); err != nil {
			r.logger.Warn().Err(err).Str("collector", c.Name()).Msg("Failed to collect metrics")
		}
	}
}
