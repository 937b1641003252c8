package metrics_collectors

import (
	"context"
	"runtime"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
)

// GoroutineMetricCollector collects the number of active goroutines.
type GoroutineMetricCollector struct{}

// Name returns the identifier for the goroutine metric collector.
func (g *GoroutineMetricCollector) Name() string {
	return "goroutines"
}

// Collect records the number of active goroutines.
func (g *GoroutineMetricCollector) Collect(_ context.Context, heartbeat *models.Heartbeat) error {
	heartbeat.Goroutines = runtime.NumGoroutine()
	return nil
}
