package metrics_collectors

import (
	"context"
	"time"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
)

// UptimeMetricCollector reports the time since the bridge started.
type UptimeMetricCollector struct {
	Started time.Time
	now     func() time.Time
}

func NewUptimeMetricCollector(started time.Time) *UptimeMetricCollector {
	return &UptimeMetricCollector{Started: started, now: time.Now}
}

func (u *UptimeMetricCollector) Name() string {
	return "uptime"
}

func (u *UptimeMetricCollector) Collect(_ context.Context, heartbeat *models.Heartbeat) error {
	heartbeat.UptimeSeconds = int64(u.now().Sub(u.Started) / time.Second)
	return nil
}
