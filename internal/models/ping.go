package models

import "time"

// PingResult represents a single probe attempt against one target
type PingResult struct {
	Timestamp    time.Time `json:"timestamp"`
	Target       string    `json:"target"`
	Protocol     string    `json:"protocol"`
	Success      bool      `json:"success"`
	RTT          float64   `json:"rtt_ms"` // milliseconds
	ErrorMessage string    `json:"error_message"`
}

// Sample returns the latency of a successful probe, or nil for a lost packet
func (r PingResult) Sample() *float64 {
	if !r.Success {
		return nil
	}
	rtt := r.RTT
	return &rtt
}
