package metrics_collectors

import (
	"context"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
)

// MetricCollector fills one group of figures into a heartbeat.
type MetricCollector interface {
	Name() string                                                   // Name of the metric group (e.g., "process")
	Collect(ctx context.Context, heartbeat *models.Heartbeat) error // Add the figures to heartbeat
}
