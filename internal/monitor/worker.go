package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"latency-dashboard/internal/models"
)

// measure probes targets sequentially and ends with a terminal event
func (m *Monitor) measure(ctx context.Context, targets []string, samples int, timeout time.Duration, events chan<- models.Event) {
	log := m.logger.With(zap.Int("targets", len(targets)), zap.Int("samples", samples))
	log.Info("measurement running", zap.Duration("timeout", timeout))

	limiter := rate.NewLimiter(rate.Inf, 1)
	if m.opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(m.opts.Interval), 1)
	}

	results := models.NewResultSet()
	total := len(targets) * samples
	done := 0

	for _, target := range targets {
		if !send(ctx, events, progress(fmt.Sprintf("Testing %s...", target), done, total)) {
			return
		}

		probes := make([]models.PingResult, 0, samples)
		for j := 1; j <= samples; j++ {
			if err := limiter.Wait(ctx); err != nil {
				log.Info("measurement canceled", zap.Error(err))
				return
			}

			result, err := m.pinger.Ping(ctx, target, timeout)
			if err != nil {
				log.Info("measurement canceled", zap.String("target", target), zap.Error(err))
				return
			}
			if !result.Success {
				log.Debug("probe lost", zap.String("target", target), zap.String("error", result.ErrorMessage))
			}
			m.metrics.ObserveProbe(m.pinger.Protocol(), result.Success, result.RTT)

			probes = append(probes, result)
			done++
			if !send(ctx, events, progress(fmt.Sprintf("Testing %s... (%d/%d)", target, j, samples), done, total)) {
				return
			}
		}

		results.Set(target, computeStatistics(probes, m.pinger.Protocol()))
	}

	record := models.HistoricalRecord{
		Timestamp: time.Now().Format(models.TimestampLayout),
		Data:      results,
	}
	if err := m.store.SaveRecord(ctx, record); err != nil {
		log.Error("failed to save measurement", zap.Error(err))
		send(ctx, events, models.TerminalEvent{
			Status:  models.StatusError,
			Message: fmt.Sprintf("Error during measurement: %v", err),
			Data:    results,
		})
		return
	}

	log.Info("measurement finished", zap.String("timestamp", record.Timestamp))
	send(ctx, events, models.TerminalEvent{Status: models.StatusSuccess, Data: results})
}

func progress(status string, done, total int) models.ProgressEvent {
	return models.ProgressEvent{
		Status:   status,
		Progress: float64(done) / float64(total) * 100,
	}
}

// send delivers ev unless ctx ended first
func send(ctx context.Context, events chan<- models.Event, ev models.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
