// Package monitor runs measurements against a set of targets and streams their progress.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"latency-dashboard/internal/metrics"
	"latency-dashboard/internal/models"
)

// ErrStopped is returned when a measurement is requested after Stop
var ErrStopped = errors.New("monitor: stopped")

// Store is the persistence the monitor needs
type Store interface {
	models.Recorder
	PruneHistory(ctx context.Context, days int) (int64, error)
}

// Options tune probing and maintenance
type Options struct {
	Interval            time.Duration // pause between probes
	Timeout             time.Duration // per probe, overridden by settings
	MaxSamples          int           // 0 means unbounded
	RetentionDays       int           // 0 disables pruning
	MaintenanceInterval time.Duration
}

// Monitor coordinates measurement runs and maintenance
type Monitor struct {
	pinger   models.Pinger
	store    Store
	settings models.SettingsSource
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Collector

	mu     sync.Mutex // orders wg.Add against Stop
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Monitor. settings may be nil.
func New(pinger models.Pinger, store Store, settings models.SettingsSource, opts Options, logger *zap.Logger, collector *metrics.Collector) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		pinger:   pinger,
		store:    store,
		settings: settings,
		opts:     opts,
		logger:   logger,
		metrics:  collector,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// StartMeasurement validates the request and probes the targets in the
// background. The returned channel receives progress events and then exactly
// one terminal event, unless ctx ends first, in which case it is closed
// without a terminal event.
func (m *Monitor) StartMeasurement(ctx context.Context, targets []string, samples int) (<-chan models.Event, error) {
	if m.ctx.Err() != nil {
		return nil, ErrStopped
	}
	if len(targets) == 0 {
		return nil, errors.New("no targets given")
	}
	if samples <= 0 {
		return nil, fmt.Errorf("samples must be positive, got %d", samples)
	}
	if m.opts.MaxSamples > 0 && samples > m.opts.MaxSamples {
		return nil, fmt.Errorf("samples must be at most %d, got %d", m.opts.MaxSamples, samples)
	}

	timeout := m.probeTimeout(ctx)

	// one progress event per probe plus one per target, then the terminal event
	events := make(chan models.Event, len(targets)*(samples+1)+1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Err() != nil {
		return nil, ErrStopped
	}

	runCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.ctx, cancel)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer stop()
		defer cancel()
		defer close(events)
		m.measure(runCtx, append([]string(nil), targets...), samples, timeout, events)
	}()

	return events, nil
}

func (m *Monitor) probeTimeout(ctx context.Context) time.Duration {
	timeout := m.opts.Timeout
	if m.settings == nil {
		return timeout
	}
	s, err := m.settings.GetSettings(ctx)
	if err != nil {
		m.logger.Warn("failed to read settings, using configured timeout", zap.Error(err))
		return timeout
	}
	if s.PingTimeout > 0 {
		timeout = time.Duration(s.PingTimeout) * time.Second
	}
	return timeout
}
