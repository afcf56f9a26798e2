package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"latency-dashboard/internal/metrics"
	"latency-dashboard/internal/models"
)

// scriptedPinger answers each target with its scripted RTTs in turn; a
// negative RTT is a lost probe.
type scriptedPinger struct {
	mu       sync.Mutex
	script   map[string][]float64
	calls    map[string]int
	timeouts []time.Duration
	block    chan struct{}
}

func newScriptedPinger(script map[string][]float64) *scriptedPinger {
	return &scriptedPinger{script: script, calls: make(map[string]int)}
}

func (p *scriptedPinger) Protocol() string { return "TCP" }

func (p *scriptedPinger) Ping(ctx context.Context, target string, timeout time.Duration) (models.PingResult, error) {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return models.PingResult{Target: target}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls[target]
	p.calls[target]++
	p.timeouts = append(p.timeouts, timeout)

	rtt := -1.0
	if seq := p.script[target]; i < len(seq) {
		rtt = seq[i]
	}
	if rtt < 0 {
		return models.PingResult{Target: target, Protocol: "TCP", ErrorMessage: "timeout"}, nil
	}
	return models.PingResult{Target: target, Protocol: "TCP", Success: true, RTT: rtt}, nil
}

type memoryStore struct {
	mu      sync.Mutex
	records []models.HistoricalRecord
	saveErr error
	prunes  []int
}

func (s *memoryStore) SaveRecord(_ context.Context, record models.HistoricalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records = append(s.records, record)
	return nil
}

func (s *memoryStore) PruneHistory(_ context.Context, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prunes = append(s.prunes, days)
	return 0, nil
}

func (s *memoryStore) pruneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prunes)
}

type fixedSettings struct{ settings models.Settings }

func (f fixedSettings) GetSettings(context.Context) (models.Settings, error) {
	return f.settings, nil
}

func collect(t *testing.T, events <-chan models.Event) []models.Event {
	t.Helper()
	var out []models.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for measurement events")
		}
	}
}

func newTestMonitor(t *testing.T, pinger models.Pinger, store Store, opts Options) *Monitor {
	t.Helper()
	m := New(pinger, store, nil, opts, zaptest.NewLogger(t), metrics.New())
	t.Cleanup(func() {
		m.Stop()
		m.Wait()
	})
	return m
}

func TestMeasurementEventSequence(t *testing.T) {
	pinger := newScriptedPinger(map[string][]float64{
		"8.8.8.8": {10, 12, 11, 13},
		"1.1.1.1": {-1, -1, -1, -1},
	})
	store := &memoryStore{}
	m := newTestMonitor(t, pinger, store, Options{Timeout: time.Second})

	ch, err := m.StartMeasurement(context.Background(), []string{"8.8.8.8", "1.1.1.1"}, 4)
	require.NoError(t, err)
	events := collect(t, ch)

	require.Len(t, events, 11)
	first, ok := events[0].(models.ProgressEvent)
	require.True(t, ok)
	assert.Equal(t, "Testing 8.8.8.8...", first.Status)
	assert.Equal(t, 0.0, first.Progress)

	second := events[1].(models.ProgressEvent)
	assert.Equal(t, "Testing 8.8.8.8... (1/4)", second.Status)
	assert.Equal(t, 12.5, second.Progress)

	switchover := events[5].(models.ProgressEvent)
	assert.Equal(t, "Testing 1.1.1.1...", switchover.Status)
	assert.Equal(t, 50.0, switchover.Progress)

	last := events[9].(models.ProgressEvent)
	assert.Equal(t, "Testing 1.1.1.1... (4/4)", last.Status)
	assert.Equal(t, 100.0, last.Progress)

	terminal, ok := events[10].(models.TerminalEvent)
	require.True(t, ok)
	assert.Equal(t, models.StatusSuccess, terminal.Status)
	assert.Equal(t, []string{"8.8.8.8", "1.1.1.1"}, terminal.Data.Targets())

	good, _ := terminal.Data.Get("8.8.8.8")
	assert.InDelta(t, 11.5, good.Avg, 1e-9)
	assert.Equal(t, "TCP", good.Protocol)

	lost, _ := terminal.Data.Get("1.1.1.1")
	assert.Equal(t, 100.0, lost.PacketLoss)
	assert.True(t, lost.Failed())
	assert.Equal(t, []*float64{nil, nil, nil, nil}, lost.Latencies)

	require.Len(t, store.records, 1)
	assert.Same(t, terminal.Data, store.records[0].Data)
	_, err = time.Parse(models.TimestampLayout, store.records[0].Timestamp)
	assert.NoError(t, err)
}

func TestMeasurementSaveFailure(t *testing.T) {
	pinger := newScriptedPinger(map[string][]float64{"8.8.8.8": {5}})
	store := &memoryStore{saveErr: errors.New("disk full")}
	m := newTestMonitor(t, pinger, store, Options{})

	ch, err := m.StartMeasurement(context.Background(), []string{"8.8.8.8"}, 1)
	require.NoError(t, err)
	events := collect(t, ch)

	terminal := events[len(events)-1].(models.TerminalEvent)
	assert.Equal(t, models.StatusError, terminal.Status)
	assert.Equal(t, "Error during measurement: disk full", terminal.Message)
	require.NotNil(t, terminal.Data)
	assert.Equal(t, 1, terminal.Data.Len())
}

func TestMeasurementCanceled(t *testing.T) {
	pinger := newScriptedPinger(nil)
	pinger.block = make(chan struct{})
	m := newTestMonitor(t, pinger, &memoryStore{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := m.StartMeasurement(ctx, []string{"8.8.8.8"}, 3)
	require.NoError(t, err)

	first := <-ch
	assert.IsType(t, models.ProgressEvent{}, first)
	cancel()

	for ev := range ch {
		_, terminal := ev.(models.TerminalEvent)
		assert.False(t, terminal, "no terminal event after cancellation")
	}
}

func TestStartMeasurementValidation(t *testing.T) {
	m := newTestMonitor(t, newScriptedPinger(nil), &memoryStore{}, Options{MaxSamples: 10})

	tests := []struct {
		name    string
		targets []string
		samples int
	}{
		{"no targets", nil, 3},
		{"zero samples", []string{"8.8.8.8"}, 0},
		{"too many samples", []string{"8.8.8.8"}, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.StartMeasurement(context.Background(), tt.targets, tt.samples)
			assert.Error(t, err)
		})
	}
}

func TestStartMeasurementAfterStop(t *testing.T) {
	m := New(newScriptedPinger(nil), &memoryStore{}, nil, Options{}, zaptest.NewLogger(t), nil)
	m.Stop()
	m.Wait()

	_, err := m.StartMeasurement(context.Background(), []string{"8.8.8.8"}, 1)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestStartMeasurementRacingStop(t *testing.T) {
	pinger := newScriptedPinger(nil)
	pinger.block = make(chan struct{})
	m := New(pinger, &memoryStore{}, nil, Options{}, zaptest.NewLogger(t), nil)

	var wg sync.WaitGroup
	streams := make(chan (<-chan models.Event), 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				ch, err := m.StartMeasurement(context.Background(), []string{"8.8.8.8"}, 1)
				if err != nil {
					assert.ErrorIs(t, err, ErrStopped)
					continue
				}
				streams <- ch
			}
		}()
	}

	m.Stop()
	m.Wait()
	wg.Wait()
	close(streams)

	_, err := m.StartMeasurement(context.Background(), []string{"8.8.8.8"}, 1)
	assert.ErrorIs(t, err, ErrStopped)
	// every accepted run was cancelled by Stop and its stream closed
	for ch := range streams {
		for range ch {
		}
	}
}

func TestSettingsTimeoutOverridesDefault(t *testing.T) {
	pinger := newScriptedPinger(map[string][]float64{"8.8.8.8": {1}})
	m := New(pinger, &memoryStore{}, fixedSettings{models.Settings{PingTimeout: 3}},
		Options{Timeout: time.Second}, zaptest.NewLogger(t), nil)
	defer m.Wait()
	defer m.Stop()

	ch, err := m.StartMeasurement(context.Background(), []string{"8.8.8.8"}, 1)
	require.NoError(t, err)
	collect(t, ch)

	assert.Equal(t, []time.Duration{3 * time.Second}, pinger.timeouts)
}

func TestMaintenanceWorkerPrunes(t *testing.T) {
	store := &memoryStore{}
	m := New(newScriptedPinger(nil), store, nil,
		Options{RetentionDays: 30, MaintenanceInterval: 10 * time.Millisecond}, zaptest.NewLogger(t), nil)
	require.NoError(t, m.Start())

	assert.Eventually(t, func() bool { return store.pruneCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	m.Stop()
	m.Wait()
	assert.Equal(t, 30, store.prunes[0])
}

func TestMaintenanceDisabledWithoutRetention(t *testing.T) {
	store := &memoryStore{}
	m := New(newScriptedPinger(nil), store, nil, Options{}, zaptest.NewLogger(t), nil)
	require.NoError(t, m.Start())
	m.Stop()
	m.Wait()
	assert.Zero(t, store.pruneCount())
}
