// Package weave groups incoming alerts into fixed time windows, derives
// pairwise correlations when a window closes, and archives the closed
// batch for the pattern miner.
package weave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HerbHall/presage/pkg/models"
	"github.com/HerbHall/presage/pkg/plugin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Module implements the Weave batching plugin. Exactly one batch is open
// at any time; a new one opens the moment the previous one closes.
type Module struct {
	logger *zap.Logger
	cfg    WeaveConfig
	bus    plugin.EventBus
	store  *WeaveStore

	mu      sync.Mutex
	current *models.Batch

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Weave plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "weave",
		Version:      "0.1.0",
		Description:  "Alert batching, correlation, and archiving",
		Dependencies: []string{"beacon"},
		Required:     true,
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal weave config: %w", err)
		}
	}

	if deps.Store == nil {
		return fmt.Errorf("weave requires a durable store")
	}
	if err := deps.Store.Migrate(ctx, "weave", migrations()); err != nil {
		return fmt.Errorf("weave migrations: %w", err)
	}
	m.store = NewWeaveStore(deps.Store.DB())

	m.logger.Info("weave module initialized",
		zap.Duration("batch_window", m.cfg.BatchWindow),
		zap.Duration("correlation_window", m.cfg.CorrelationWindow),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.mu.Lock()
	m.current = m.newBatch(time.Now().UTC())
	m.mu.Unlock()

	m.startRotation()
	m.startMaintenance()
	m.logger.Info("weave module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info("weave module stopped")
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	m.mu.Lock()
	open := 0
	if m.current != nil {
		open = len(m.current.Alerts)
	}
	m.mu.Unlock()
	return plugin.HealthStatus{
		Status:  "healthy",
		Details: map[string]string{"open_batch_alerts": fmt.Sprintf("%d", open)},
	}
}

// Subscriptions implements plugin.EventSubscriber.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: TopicAlertRecorded, Handler: m.handleAlertRecorded},
	}
}

// UnminedBatches returns archived batches the pattern miner has not yet
// processed, plus the ids of rows that failed to decode.
func (m *Module) UnminedBatches(ctx context.Context) ([]models.Batch, []string, error) {
	return m.store.ListUnmined(ctx)
}

// MarkBatchesMined stamps the given batches as consumed by the pattern
// miner so repeated mining cycles never double-count them.
func (m *Module) MarkBatchesMined(ctx context.Context, ids []string, at time.Time) error {
	return m.store.MarkMined(ctx, ids, at)
}

func (m *Module) handleAlertRecorded(_ context.Context, event plugin.Event) {
	alert, ok := event.Payload.(*models.Alert)
	if !ok {
		m.logger.Warn("unexpected payload type for alert event",
			zap.String("topic", event.Topic))
		return
	}
	m.AddAlert(*alert)
}

// AddAlert appends an alert to the current batch. Alerts arriving after a
// batch has closed but before rotation completes are dropped into the next
// batch by the caller's retry-free contract: the append only applies to a
// still-open batch.
func (m *Module) AddAlert(alert models.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.Processed {
		return
	}
	m.current.Alerts = append(m.current.Alerts, alert)
}

// startRotation arms the batch-window timer. The timer is reset at every
// batch open, so window length is measured from open time.
func (m *Module) startRotation() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		timer := time.NewTimer(m.cfg.BatchWindow)
		defer timer.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-timer.C:
				m.rotate()
				timer.Reset(m.cfg.BatchWindow)
			}
		}
	}()
}

// rotate closes the current batch, correlates and archives it, and opens
// the next one. Archive failures are logged and swallowed: the in-memory
// pipeline keeps running and the next cycle is the retry.
func (m *Module) rotate() {
	now := time.Now().UTC()

	m.mu.Lock()
	closed := m.current
	if closed != nil {
		closed.Processed = true
	}
	m.current = m.newBatch(now)
	m.mu.Unlock()

	if closed == nil || len(closed.Alerts) == 0 {
		return
	}

	closed.Correlations = Correlate(closed.Alerts, m.cfg.CorrelationWindow)
	batchesArchived.Inc()

	ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
	defer cancel()
	if err := m.store.ArchiveBatch(ctx, closed, now); err != nil {
		m.logger.Warn("failed to archive batch",
			zap.String("batch_id", closed.ID),
			zap.Error(err),
		)
		return
	}

	m.logger.Debug("batch archived",
		zap.String("batch_id", closed.ID),
		zap.Int("alerts", len(closed.Alerts)),
		zap.Int("correlations", len(closed.Correlations)),
	)

	if m.bus != nil {
		m.bus.PublishAsync(m.ctx, plugin.Event{
			Topic:     TopicBatchArchived,
			Source:    "weave",
			Timestamp: now,
			Payload:   closed,
		})
	}
}

func (m *Module) newBatch(now time.Time) *models.Batch {
	return &models.Batch{
		ID:        uuid.New().String(),
		CreatedAt: now,
	}
}
