package weave

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// startMaintenance launches the daily sweep: force-rotate a batch that
// outlived the stale age (defensive against timer loss) and purge archived
// batches past retention.
func (m *Module) startMaintenance() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.MaintenanceInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.runMaintenance()
			}
		}
	}()
}

// runMaintenance executes a single maintenance cycle.
func (m *Module) runMaintenance() {
	now := time.Now().UTC()

	m.mu.Lock()
	stale := m.current != nil && now.Sub(m.current.CreatedAt) > m.cfg.StaleBatchAge
	m.mu.Unlock()

	if stale {
		m.logger.Warn("open batch exceeded stale age, forcing rotation",
			zap.Duration("stale_batch_age", m.cfg.StaleBatchAge))
		m.rotate()
	}

	ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
	defer cancel()

	deleted, err := m.store.DeleteBefore(ctx, now.Add(-m.cfg.BatchRetention))
	if err != nil {
		m.logger.Warn("failed to purge old batches", zap.Error(err))
	} else if deleted > 0 {
		m.logger.Info("purged old batches", zap.Int64("count", deleted))
	}
}
