// Package session drives one user initiated measurement from start request to
// terminal outcome and turns its results into render-ready views.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"latency-dashboard/internal/metrics"
	"latency-dashboard/internal/models"
	"latency-dashboard/internal/quality"
	"latency-dashboard/internal/series"
)

// State of a session. Completed and Failed are terminal.
type State int

const (
	Idle State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Severity of a user notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// CompletedMessage is shown when at least one target answered
const CompletedMessage = "Measurement completed successfully!"

// Engine starts measurements and returns their push channel.
// The channel carries zero or more progress events followed by one terminal event.
type Engine interface {
	StartMeasurement(ctx context.Context, targets []string, samples int) (<-chan models.Event, error)
}

// Sink receives everything the session wants displayed
type Sink interface {
	ShowProgress(status string, percent float64)
	HideProgress()
	SetStartEnabled(enabled bool)
	RenderResults(rows []quality.Row)
	RenderChart(model series.ChartModel)
	RefreshHistory()
	ShowAlert(message string, severity Severity)
}

// Outcome is the render-ready view of a completed measurement
type Outcome struct {
	Results   *models.ResultSet
	Rows      []quality.Row
	Chart     series.ChartModel
	AllFailed bool
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the session logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records session outcomes on the collector
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Session) {
		s.metrics = c
	}
}

// Session is the state machine of a single measurement. A new measurement
// needs a new Session; terminal states are never left.
type Session struct {
	id      string
	engine  Engine
	sink    Sink
	logger  *zap.Logger
	metrics *metrics.Collector

	mu       sync.Mutex
	state    State
	status   string
	progress float64
	events   <-chan models.Event
	outcome  *Outcome
	err      error
	warning  *DegradedResultWarning
}

// New creates an idle session
func New(engine Engine, sink Sink, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		engine: engine,
		sink:   sink,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session_id", s.id))
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the last displayed status text and percentage
func (s *Session) Progress() (string, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.progress
}

// Outcome is set once the session completed
func (s *Session) Outcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Err is the engine error of a failed session
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Warning is set when a completed session had every target fail
func (s *Session) Warning() *DegradedResultWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// Start validates the target input and asks the engine to begin measuring.
// Invalid input is reported to the sink and leaves the session Idle without
// contacting the engine.
func (s *Session) Start(ctx context.Context, input string, samples int) error {
	s.mu.Lock()
	switch s.state {
	case Running:
		s.mu.Unlock()
		s.logger.Warn("start rejected, measurement in progress")
		s.sink.ShowAlert("A measurement is already running", SeverityWarning)
		return ErrAlreadyRunning
	case Completed, Failed:
		s.mu.Unlock()
		return ErrFinished
	}

	targets := ParseTargets(input)
	var verr *ValidationError
	switch {
	case len(targets) == 0:
		verr = &ValidationError{Field: "targets", Message: "Please enter at least one IP address"}
	case samples <= 0:
		verr = &ValidationError{Field: "samples", Message: "Number of pings must be a positive integer"}
	}
	if verr != nil {
		s.mu.Unlock()
		s.logger.Warn("start rejected", zap.String("field", verr.Field), zap.String("reason", verr.Message))
		s.sink.ShowAlert(verr.Message, SeverityWarning)
		return verr
	}

	s.state = Running
	s.status = "Initializing..."
	s.progress = 0
	s.mu.Unlock()

	s.logger.Info("measurement started", zap.Strings("targets", targets), zap.Int("samples", samples))
	s.metrics.SessionStarted()
	s.sink.ShowProgress("Initializing...", 0)
	s.sink.SetStartEnabled(false)

	events, err := s.engine.StartMeasurement(ctx, targets, samples)
	if err != nil {
		return s.fail(err.Error())
	}

	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	return nil
}

// Run consumes the engine channel until a terminal event arrives or ctx ends.
// It returns nil on completion and the EngineError on failure. When ctx ends
// first the session is abandoned in the Running state.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	events, state := s.events, s.state
	s.mu.Unlock()

	switch state {
	case Completed:
		return nil
	case Failed:
		return s.Err()
	case Idle:
		return ErrNotRunning
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session abandoned", zap.Error(ctx.Err()))
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return s.fail("measurement stream closed before completion")
			}
			if err := s.Handle(ev); err != nil {
				return err
			}
			switch s.State() {
			case Completed:
				return nil
			case Failed:
				return s.Err()
			}
		}
	}
}

// Handle applies one event. Progress values are displayed as received, with no
// smoothing or clamping.
func (s *Session) Handle(ev models.Event) error {
	switch e := ev.(type) {
	case models.ProgressEvent:
		s.mu.Lock()
		if s.state != Running {
			s.mu.Unlock()
			return ErrNotRunning
		}
		s.status, s.progress = e.Status, e.Progress
		s.mu.Unlock()
		s.sink.ShowProgress(e.Status, e.Progress)
		return nil
	case models.TerminalEvent:
		if e.Status == models.StatusError {
			msg := e.Message
			if msg == "" {
				msg = DefaultEngineMessage
			}
			if s.fail(msg) == nil {
				return ErrNotRunning
			}
			return nil
		}
		return s.complete(e.Data)
	default:
		return fmt.Errorf("session: unexpected event %T", ev)
	}
}

func (s *Session) complete(rs *models.ResultSet) error {
	if rs == nil {
		rs = models.NewResultSet()
	}

	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	outcome := &Outcome{
		Results:   rs,
		Rows:      quality.Rows(rs),
		Chart:     series.Build(rs),
		AllFailed: allFailed(rs),
	}
	s.state = Completed
	s.outcome = outcome
	if outcome.AllFailed {
		s.warning = &DegradedResultWarning{Targets: rs.Len()}
	}
	warning := s.warning
	s.mu.Unlock()

	s.sink.HideProgress()
	s.sink.SetStartEnabled(true)
	s.sink.RenderResults(outcome.Rows)
	s.sink.RenderChart(outcome.Chart)
	s.sink.RefreshHistory()

	for _, row := range outcome.Rows {
		s.metrics.TargetClassified(string(row.Tier))
	}

	if warning != nil {
		s.logger.Warn("measurement completed, all targets failed", zap.Int("targets", warning.Targets))
		s.metrics.SessionFinished("degraded")
		s.sink.ShowAlert(warning.Message(), SeverityWarning)
		return nil
	}

	s.logger.Info("measurement completed", zap.Int("targets", rs.Len()))
	s.metrics.SessionFinished("completed")
	s.sink.ShowAlert(CompletedMessage, SeveritySuccess)
	return nil
}

// fail moves a running session to Failed and returns the recorded EngineError,
// or nil when the session was not running.
func (s *Session) fail(msg string) error {
	s.mu.Lock()
	if s.state != Running {
		s.mu.Unlock()
		return nil
	}
	engineErr := &EngineError{Message: msg}
	s.state = Failed
	s.err = engineErr
	s.mu.Unlock()

	s.logger.Error("measurement failed", zap.String("message", msg))
	s.metrics.SessionFinished("failed")
	s.sink.HideProgress()
	s.sink.SetStartEnabled(true)
	s.sink.ShowAlert(msg, SeverityDanger)
	return engineErr
}

// allFailed is true when no target produced a non-zero average, including the empty set
func allFailed(rs *models.ResultSet) bool {
	failed := true
	rs.Each(func(_ string, st models.TargetStatistics) {
		if !st.Failed() {
			failed = false
		}
	})
	return failed
}
