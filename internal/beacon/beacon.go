// Package beacon implements the alert store: a capped in-memory alert
// history with concurrent notification fan-out. It is the single entry
// point for real and synthetic alerts, and the trigger for prediction
// accuracy verification.
package beacon

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
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// PredictionVerifier checks a freshly recorded real alert against pending
// predictions. Implemented by the accuracy tracker; injected at the
// composition root so beacon never imports tally.
type PredictionVerifier interface {
	VerifyAlert(ctx context.Context, alert models.Alert)
}

// Module implements the Beacon alert store plugin.
type Module struct {
	logger     *zap.Logger
	cfg        BeaconConfig
	bus        plugin.EventBus
	dispatcher *Dispatcher
	verifier   PredictionVerifier

	mu      sync.RWMutex
	history []models.Alert // oldest first, len <= cfg.HistoryLimit

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Beacon plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "beacon",
		Version:     "0.1.0",
		Description: "Alert history, notification fan-out, and trend rollups",
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal beacon config: %w", err)
		}
	}
	if m.cfg.HistoryLimit <= 0 {
		return fmt.Errorf("beacon history_limit must be positive, got %d", m.cfg.HistoryLimit)
	}

	m.dispatcher = NewDispatcher(m.cfg.Channels, m.cfg.NotifyTimeout, m.logger)

	m.logger.Info("beacon module initialized",
		zap.Int("history_limit", m.cfg.HistoryLimit),
		zap.Int("channels", m.dispatcher.ChannelCount()),
	)
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.logger.Info("beacon module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info("beacon module stopped")
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	m.mu.RLock()
	n := len(m.history)
	m.mu.RUnlock()
	return plugin.HealthStatus{
		Status: "healthy",
		Details: map[string]string{
			"history_len": fmt.Sprintf("%d", n),
			"channels":    fmt.Sprintf("%d", m.dispatcher.ChannelCount()),
		},
	}
}

// SetVerifier injects the prediction verification capability. Called once
// from the composition root before Start.
func (m *Module) SetVerifier(v PredictionVerifier) {
	m.verifier = v
}

// Record appends an alert to history, fans out notifications, and -- for
// real alerts -- triggers verification of pending predictions. The caller
// is never blocked on delivery and never sees a delivery failure.
func (m *Module) Record(ctx context.Context, alert models.Alert) models.Alert {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	m.history = append(m.history, alert)
	if over := len(m.history) - m.cfg.HistoryLimit; over > 0 {
		m.history = m.history[over:]
	}
	m.mu.Unlock()

	alertsRecorded.WithLabelValues(string(alert.Severity)).Inc()

	if m.bus != nil {
		m.bus.PublishAsync(ctx, plugin.Event{
			Topic:     TopicAlertRecorded,
			Source:    "beacon",
			Timestamp: alert.Timestamp,
			Payload:   &alert,
		})
	}

	// Verification is in-memory bookkeeping in the accuracy tracker;
	// synthetic predictions must not verify themselves.
	if m.verifier != nil && !alert.Synthetic() {
		m.verifier.VerifyAlert(ctx, alert)
	}

	// Delivery runs off the synchronous path. The module context keeps
	// deliveries alive after the caller's request context ends.
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.dispatcher.Dispatch(m.dispatchCtx(), &alert)
	}()

	return alert
}

// Query returns history entries matching the filter, oldest first.
func (m *Module) Query(filter models.AlertFilter) []models.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Alert, 0, len(m.history))
	for i := range m.history {
		if filter.Matches(&m.history[i]) {
			out = append(out, m.history[i])
		}
	}
	return out
}

// History returns a copy of the full alert history, oldest first.
func (m *Module) History() []models.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Alert, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Module) dispatchCtx() context.Context {
	if m.ctx != nil {
		return m.ctx
	}
	return context.Background()
}
