// Package seer mines archived alert batches for recurring co-occurrence
// patterns, predicts when each pattern will next fire, and emits synthetic
// alerts ahead of predicted occurrences.
package seer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HerbHall/presage/pkg/models"
	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin        = (*Module)(nil)
	_ plugin.HTTPProvider  = (*Module)(nil)
	_ plugin.HealthChecker = (*Module)(nil)
)

// BatchSource supplies archived batches for mining. Implemented by the
// weave module; injected at the composition root.
type BatchSource interface {
	UnminedBatches(ctx context.Context) (batches []models.Batch, skipped []string, err error)
	MarkBatchesMined(ctx context.Context, ids []string, at time.Time) error
}

// AlertRecorder accepts synthetic prediction alerts into the alert store.
// Implemented by the beacon module; injected at the composition root.
type AlertRecorder interface {
	Record(ctx context.Context, alert models.Alert) models.Alert
}

// PredictionLedger records emitted predictions for later verification.
// Implemented by the tally module; injected at the composition root.
type PredictionLedger interface {
	RecordPrediction(pattern models.Pattern)
}

// Module implements the Seer pattern mining plugin.
type Module struct {
	logger   *zap.Logger
	cfg      SeerConfig
	bus      plugin.EventBus
	store    *SeerStore
	batches  BatchSource
	recorder AlertRecorder
	ledger   PredictionLedger

	mu       sync.RWMutex
	registry map[string]*models.Pattern
	checks   map[string]*checkState

	persistCh chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a new Seer plugin instance.
func New() *Module {
	return &Module{
		registry:  make(map[string]*models.Pattern),
		checks:    make(map[string]*checkState),
		persistCh: make(chan struct{}, 1),
	}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "seer",
		Version:      "0.1.0",
		Description:  "Pattern mining and occurrence prediction",
		Dependencies: []string{"weave"},
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
			return fmt.Errorf("unmarshal seer config: %w", err)
		}
	}

	if deps.Store == nil {
		return fmt.Errorf("seer requires a durable store")
	}
	if err := deps.Store.Migrate(ctx, "seer", migrations()); err != nil {
		return fmt.Errorf("seer migrations: %w", err)
	}
	m.store = NewSeerStore(deps.Store.DB())

	patterns, skipped, err := m.store.LoadAll(ctx)
	if err != nil {
		// Registry rebuilds from subsequent mining cycles; start empty.
		m.logger.Warn("failed to load pattern registry, starting empty", zap.Error(err))
	}
	for _, id := range skipped {
		m.logger.Warn("skipping malformed pattern row", zap.String("pattern_id", id))
	}
	for i := range patterns {
		p := patterns[i]
		m.registry[p.ID] = &p
	}

	m.logger.Info("seer module initialized",
		zap.Int("patterns_loaded", len(m.registry)),
		zap.Duration("mining_interval", m.cfg.MiningInterval),
	)
	return nil
}

// SetBatchSource, SetRecorder, and SetLedger inject the cross-module
// capabilities. Called once from the composition root before Start.
func (m *Module) SetBatchSource(s BatchSource) { m.batches = s }
func (m *Module) SetRecorder(r AlertRecorder)  { m.recorder = r }
func (m *Module) SetLedger(l PredictionLedger) { m.ledger = l }

func (m *Module) Start(_ context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.startLoop(m.cfg.MiningInterval, m.runMining)
	m.startLoop(m.cfg.CheckInterval, m.runChecks)
	m.startPersister()
	m.logger.Info("seer module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	// Final synchronous snapshot so a clean shutdown loses nothing.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.store.SaveAll(ctx, m.snapshot()); err != nil {
		m.logger.Warn("failed to persist registry on shutdown", zap.Error(err))
	}
	m.logger.Info("seer module stopped")
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	m.mu.RLock()
	patterns := len(m.registry)
	tracked := len(m.checks)
	m.mu.RUnlock()
	return plugin.HealthStatus{
		Status: "healthy",
		Details: map[string]string{
			"patterns":       fmt.Sprintf("%d", patterns),
			"tracked_checks": fmt.Sprintf("%d", tracked),
		},
	}
}

// startLoop runs fn on a fixed interval until shutdown.
func (m *Module) startLoop(interval time.Duration, fn func()) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// runMining executes one mining cycle: cluster every un-mined batch,
// merge candidates into the registry, sweep stale patterns, persist.
func (m *Module) runMining() {
	if m.batches == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	batches, skipped, err := m.batches.UnminedBatches(ctx)
	if err != nil {
		m.logger.Warn("failed to load batches for mining", zap.Error(err))
		return
	}
	for _, id := range skipped {
		m.logger.Warn("skipping malformed batch", zap.String("batch_id", id))
	}
	if len(batches) == 0 && len(m.registry) == 0 {
		return
	}

	merged := 0
	minedIDs := make([]string, 0, len(batches))
	for i := range batches {
		for _, cluster := range clusterAlerts(batches[i].Alerts, m.cfg.ClusterWindow) {
			candidate := deriveCandidate(cluster)
			m.mergeCandidate(&candidate)
			merged++
		}
		minedIDs = append(minedIDs, batches[i].ID)
	}

	if len(minedIDs) > 0 {
		if err := m.batches.MarkBatchesMined(ctx, minedIDs, time.Now().UTC()); err != nil {
			m.logger.Warn("failed to mark batches mined", zap.Error(err))
		}
	}

	removed := m.sweepStale(time.Now().UTC())

	m.mu.RLock()
	patternsTracked.Set(float64(len(m.registry)))
	m.mu.RUnlock()

	m.logger.Info("mining cycle complete",
		zap.Int("batches", len(batches)),
		zap.Int("clusters_merged", merged),
		zap.Int("patterns_removed", removed),
	)

	m.requestPersist()
}

// mergeCandidate inserts or merges one candidate pattern.
func (m *Module) mergeCandidate(candidate *models.Pattern) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.registry[candidate.ID]; ok {
		merge(existing, candidate)
		return
	}
	p := *candidate
	m.registry[p.ID] = &p
}

// sweepStale garbage-collects patterns idle past retention that never
// reached prediction eligibility. Returns the number removed.
func (m *Module) sweepStale(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, p := range m.registry {
		if p.Occurrences < minOccurrences && now.Sub(p.LastSeen) > m.cfg.PatternRetention {
			delete(m.registry, id)
			removed++
		}
	}
	return removed
}

// Predictions returns patterns whose predicted occurrence is still ahead,
// annotated with dueIn and sorted soonest first. A non-zero timeframe
// drops predictions due further out than the timeframe.
func (m *Module) Predictions(timeframe time.Duration) []models.UpcomingPrediction {
	now := time.Now().UTC()

	m.mu.RLock()
	out := make([]models.UpcomingPrediction, 0, len(m.registry))
	for _, p := range m.registry {
		if p.Prediction == nil || !p.Prediction.NextExpected.After(now) {
			continue
		}
		dueIn := p.Prediction.NextExpected.Sub(now)
		if timeframe > 0 && dueIn > timeframe {
			continue
		}
		out = append(out, models.UpcomingPrediction{
			Pattern:    *p,
			Prediction: *p.Prediction,
			DueIn:      dueIn,
		})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].DueIn < out[j].DueIn })
	return out
}

// MatchPatterns scores every prediction-eligible pattern against the
// candidate alert set, sorted by descending confidence.
func (m *Module) MatchPatterns(alerts []models.Alert) []models.PatternMatch {
	m.mu.RLock()
	out := make([]models.PatternMatch, 0, len(m.registry))
	for _, p := range m.registry {
		if p.Occurrences < minOccurrences {
			continue
		}
		if c := matchConfidence(p, alerts); c > 0 {
			out = append(out, models.PatternMatch{Pattern: *p, Confidence: c})
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// Patterns returns a snapshot of the registry sorted by id.
func (m *Module) Patterns() []models.Pattern {
	out := m.snapshot()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Module) snapshot() []models.Pattern {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Pattern, 0, len(m.registry))
	for _, p := range m.registry {
		out = append(out, *p)
	}
	return out
}

// requestPersist enqueues a registry snapshot write. The single persister
// goroutine serializes writes; a pending request coalesces with the next.
func (m *Module) requestPersist() {
	select {
	case m.persistCh <- struct{}{}:
	default:
	}
}

func (m *Module) startPersister() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-m.persistCh:
				ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
				if err := m.store.SaveAll(ctx, m.snapshot()); err != nil {
					m.logger.Warn("failed to persist pattern registry", zap.Error(err))
				}
				cancel()
			}
		}
	}()
}
