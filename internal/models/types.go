package models

import (
	"context"
	"time"
)

// Terminal event statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TimestampLayout formats history record timestamps
const TimestampLayout = "2006-01-02 15:04:05"

// Event is delivered on the push channel of a running measurement.
// It is either a ProgressEvent or a TerminalEvent.
type Event interface {
	isEvent()
}

// ProgressEvent reports intermediate status of a measurement
type ProgressEvent struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"` // 0-100
}

// TerminalEvent ends a measurement
type TerminalEvent struct {
	Status  string     `json:"status"`
	Data    *ResultSet `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
}

func (ProgressEvent) isEvent() {}
func (TerminalEvent) isEvent() {}

// Pinger interface defines probe execution operations
type Pinger interface {
	Ping(ctx context.Context, target string, timeout time.Duration) (PingResult, error)
	Protocol() string
}

// Recorder persists completed measurements
type Recorder interface {
	SaveRecord(ctx context.Context, record HistoricalRecord) error
}

// SettingsSource provides the current user settings
type SettingsSource interface {
	GetSettings(ctx context.Context) (Settings, error)
}
