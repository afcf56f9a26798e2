package session

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning rejects a start request while a measurement is in flight
	ErrAlreadyRunning = errors.New("session: measurement already running")
	// ErrNotRunning is returned when events arrive outside the Running state
	ErrNotRunning = errors.New("session: not running")
	// ErrFinished rejects a start request on a session that reached a terminal state
	ErrFinished = errors.New("session: already finished")
)

// DefaultEngineMessage is shown when a failed measurement carries no message
const DefaultEngineMessage = "Measurement failed"

// ValidationError rejects user input before any measurement starts
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// EngineError is a failure reported by the measurement engine
type EngineError struct {
	Message string
}

func (e *EngineError) Error() string {
	return e.Message
}

// DegradedResultWarning flags a completed measurement in which every target failed.
// This usually means the engine lacks the privileges to send probes.
type DegradedResultWarning struct {
	Targets int
}

func (w *DegradedResultWarning) Error() string {
	return fmt.Sprintf("all %d targets failed", w.Targets)
}

// Message is the user facing text of the warning
func (w *DegradedResultWarning) Message() string {
	return "All pings failed! Make sure to run this app as Administrator (Windows) or with sudo (Linux/Mac) for ICMP ping to work."
}
