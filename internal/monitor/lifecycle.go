package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultMaintenanceInterval applies when Options leaves it unset
const DefaultMaintenanceInterval = time.Hour

// Start launches the maintenance worker
func (m *Monitor) Start() error {
	m.logger.Info("starting monitor",
		zap.String("protocol", m.pinger.Protocol()),
		zap.Duration("interval", m.opts.Interval),
		zap.Int("retention_days", m.opts.RetentionDays))

	if m.opts.RetentionDays > 0 {
		m.wg.Add(1)
		go m.maintenanceWorker()
	}
	return nil
}

// Stop cancels maintenance and running measurements
func (m *Monitor) Stop() {
	m.logger.Info("stopping monitor")
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()
}

// Wait blocks until all goroutines finish
func (m *Monitor) Wait() {
	m.wg.Wait()
	m.logger.Info("monitor stopped")
}

// maintenanceWorker periodically prunes history past the retention window
func (m *Monitor) maintenanceWorker() {
	defer m.wg.Done()

	interval := m.opts.MaintenanceInterval
	if interval <= 0 {
		interval = DefaultMaintenanceInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	m.performMaintenance(m.ctx)

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.performMaintenance(m.ctx)
		}
	}
}

func (m *Monitor) performMaintenance(ctx context.Context) {
	removed, err := m.store.PruneHistory(ctx, m.opts.RetentionDays)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Error("failed to prune history", zap.Error(err))
		}
		return
	}
	if removed > 0 {
		m.logger.Info("pruned history", zap.Int64("removed", removed), zap.Int("retention_days", m.opts.RetentionDays))
	}
}
