package models

import "time"

// Heartbeat is the bridge availability message.
type Heartbeat struct {
	Status        string        `json:"status"`
	ClientID      string        `json:"client_id,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	UptimeSeconds int64         `json:"uptime_seconds,omitempty"`
	Goroutines    int           `json:"goroutines,omitempty"`
	Devices       []string      `json:"devices,omitempty"`
	Process       *ProcessStats `json:"process,omitempty"`
}

// ProcessStats holds resource figures of the bridge process.
type ProcessStats struct {
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
}
