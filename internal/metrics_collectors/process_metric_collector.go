package metrics_collectors

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/process"

	"github.com/benmeehan/airpurifier2mqtt/internal/models"
)

// ProcessMetricCollector collects CPU and memory usage of the bridge process itself.
type ProcessMetricCollector struct {
	proc *process.Process
}

// NewProcessMetricCollector attaches to the current process.
func NewProcessMetricCollector() (*ProcessMetricCollector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to open own process: %w", err)
	}
	return &ProcessMetricCollector{proc: proc}, nil
}

func (p *ProcessMetricCollector) Name() string {
	return "process"
}

// Collect records resident memory and CPU usage since the process started.
func (p *ProcessMetricCollector) Collect(ctx context.Context, heartbeat *models.Heartbeat) error {
	stats := &models.ProcessStats{}

	memInfo, err := p.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return fmt.Errorf("memory info: %w", err)
	}
	stats.RSSBytes = memInfo.RSS

	cpuPercent, err := p.proc.CPUPercentWithContext(ctx)
	if err != nil {
		return fmt.Errorf("cpu usage: %w", err)
	}
	stats.CPUPercent = cpuPercent

	heartbeat.Process = stats
	return nil
}
