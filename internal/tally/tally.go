// Package tally records every emitted prediction and verifies it against
// the real alerts that follow, closing the pipeline's accuracy feedback
// loop.
package tally

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

// Module implements the Tally accuracy tracking plugin.
type Module struct {
	logger *zap.Logger
	cfg    TallyConfig
	bus    plugin.EventBus
	store  *TallyStore

	mu      sync.RWMutex
	records []*Record

	persistCh chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a new Tally plugin instance.
func New() *Module {
	return &Module{persistCh: make(chan struct{}, 1)}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "tally",
		Version:     "0.1.0",
		Description: "Prediction accuracy tracking",
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("unmarshal tally config: %w", err)
		}
	}

	if deps.Store == nil {
		return fmt.Errorf("tally requires a durable store")
	}
	if err := deps.Store.Migrate(ctx, "tally", migrations()); err != nil {
		return fmt.Errorf("tally migrations: %w", err)
	}
	m.store = NewTallyStore(deps.Store.DB())

	records, err := m.store.LoadAll(ctx)
	if err != nil {
		m.logger.Warn("failed to load accuracy records, starting empty", zap.Error(err))
	}
	m.records = records

	m.logger.Info("tally module initialized", zap.Int("records_loaded", len(m.records)))
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.startPersister()
	m.logger.Info("tally module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.store.SaveAll(ctx, m.snapshot()); err != nil {
		m.logger.Warn("failed to persist accuracy records on shutdown", zap.Error(err))
	}
	m.logger.Info("tally module stopped")
	return nil
}

// Health implements plugin.HealthChecker.
func (m *Module) Health(_ context.Context) plugin.HealthStatus {
	m.mu.RLock()
	total := len(m.records)
	m.mu.RUnlock()
	return plugin.HealthStatus{
		Status:  "healthy",
		Details: map[string]string{"records": fmt.Sprintf("%d", total)},
	}
}

// RecordPrediction appends a new unverified record for an emitted
// prediction. Patterns without a prediction are ignored.
func (m *Module) RecordPrediction(pattern models.Pattern) {
	if pattern.Prediction == nil {
		return
	}
	types := make([]string, len(pattern.AlertTypes))
	copy(types, pattern.AlertTypes)
	rec := &Record{
		ID:            uuid.NewString(),
		PatternID:     pattern.ID,
		AlertTypes:    types,
		PredictedTime: pattern.Prediction.NextExpected,
		Confidence:    pattern.Prediction.Confidence,
		CreatedAt:     time.Now().UTC(),
	}

	m.mu.Lock()
	m.records = append(m.records, rec)
	if over := len(m.records) - m.cfg.RecordLimit; over > 0 {
		m.records = m.records[over:]
	}
	m.mu.Unlock()

	predictionsRecorded.Inc()
	m.logger.Debug("prediction recorded for verification",
		zap.String("pattern_id", pattern.ID),
		zap.Time("predicted_time", rec.PredictedTime),
	)
}

// VerifyAlert checks one freshly recorded real alert against pending
// predictions whose pattern's constituent types include the alert's type.
func (m *Module) VerifyAlert(_ context.Context, alert models.Alert) {
	m.verify(func(rec *Record) bool {
		return rec.covers(alert.Type)
	}, []models.Alert{alert})
}

// Verify checks all pending predictions for one pattern id against a
// candidate alert set.
func (m *Module) Verify(patternID string, candidates []models.Alert) {
	m.verify(func(rec *Record) bool { return rec.PatternID == patternID }, candidates)
}

// verify marks each matching unverified record against its nearest-in-time
// candidate inside the tolerance window. Records never verify twice.
func (m *Module) verify(match func(*Record) bool, candidates []models.Alert) {
	if len(candidates) == 0 {
		return
	}

	var verified []*Record

	m.mu.Lock()
	for _, rec := range m.records {
		if rec.Verified || !match(rec) {
			continue
		}
		actual, ok := nearestWithin(rec.PredictedTime, candidates, tolerance)
		if !ok {
			continue
		}
		t := actual.Timestamp
		a := scoreAccuracy(rec.PredictedTime, t)
		rec.ActualTime = &t
		rec.Accuracy = &a
		rec.Verified = true
		verified = append(verified, rec)
	}
	m.mu.Unlock()

	for _, rec := range verified {
		predictionsVerified.Inc()
		if m.bus != nil {
			m.bus.PublishAsync(context.Background(), plugin.Event{
				Topic:     TopicPredictionVerified,
				Source:    "tally",
				Timestamp: time.Now().UTC(),
				Payload:   rec,
			})
		}
		m.logger.Info("prediction verified",
			zap.String("pattern_id", rec.PatternID),
			zap.Float64("accuracy", *rec.Accuracy),
		)
	}
}

// nearestWithin picks the candidate closest in time to the predicted
// instant, provided it lies within the tolerance window.
func nearestWithin(predicted time.Time, candidates []models.Alert, window time.Duration) (models.Alert, bool) {
	var best models.Alert
	bestGap := window + 1
	for _, c := range candidates {
		gap := c.Timestamp.Sub(predicted)
		if gap < 0 {
			gap = -gap
		}
		if gap <= window && gap < bestGap {
			best = c
			bestGap = gap
		}
	}
	return best, bestGap <= window
}

// Metrics computes the aggregate accuracy report over all records.
func (m *Module) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := Metrics{
		TotalPredictions: len(m.records),
		Patterns:         make(map[string]PatternAccuracy),
		RecentTrend:      TrendSignal{Direction: trendStable},
	}

	var (
		sum, highSum    float64
		highCount       int
		verifiedInOrder []float64
		perPattern      = make(map[string][]float64)
	)
	for _, rec := range m.records {
		pa := out.Patterns[rec.PatternID]
		pa.Predictions++
		if rec.Verified {
			out.VerifiedPredictions++
			sum += *rec.Accuracy
			if rec.Confidence >= 0.8 {
				highSum += *rec.Accuracy
				highCount++
			}
			verifiedInOrder = append(verifiedInOrder, *rec.Accuracy)
			perPattern[rec.PatternID] = append(perPattern[rec.PatternID], *rec.Accuracy)
			pa.Verified++
		}
		out.Patterns[rec.PatternID] = pa
	}

	if out.VerifiedPredictions > 0 {
		out.MeanAccuracy = sum / float64(out.VerifiedPredictions)
	}
	if highCount > 0 {
		out.HighConfidenceAccuracy = highSum / float64(highCount)
	}

	for id, accuracies := range perPattern {
		pa := out.Patterns[id]
		pa.MeanAccuracy = mean(accuracies)
		pa.Trend = patternTrend(accuracies, pa.MeanAccuracy)
		out.Patterns[id] = pa
	}
	for id, pa := range out.Patterns {
		if pa.Trend == "" {
			pa.Trend = trendStable
			out.Patterns[id] = pa
		}
	}

	out.RecentTrend = recentTrend(verifiedInOrder)
	return out
}

// patternTrend compares the mean of the last five verified accuracies
// against the all-time mean.
func patternTrend(accuracies []float64, allTime float64) string {
	if len(accuracies) == 0 {
		return trendStable
	}
	tail := accuracies
	if len(tail) > 5 {
		tail = tail[len(tail)-5:]
	}
	switch recent := mean(tail); {
	case recent > allTime+0.1:
		return trendImproving
	case recent < allTime-0.1:
		return trendDegrading
	default:
		return trendStable
	}
}

// recentTrend compares the first and second halves of the last twenty
// verified accuracies. Confidence grows with how many records backed
// the comparison.
func recentTrend(verified []float64) TrendSignal {
	if len(verified) > 20 {
		verified = verified[len(verified)-20:]
	}
	n := len(verified)
	signal := TrendSignal{
		Direction:  trendStable,
		Confidence: minFloat(1, float64(n)/20),
	}
	if n < 2 {
		return signal
	}

	half := n / 2
	signal.Delta = mean(verified[half:]) - mean(verified[:half])
	switch {
	case signal.Delta > 0.05:
		signal.Direction = trendImproving
	case signal.Delta < -0.05:
		signal.Direction = trendDegrading
	}
	return signal
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func (m *Module) snapshot() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, *rec)
	}
	return out
}

func (m *Module) requestPersist() {
	select {
	case m.persistCh <- struct{}{}:
	default:
	}
}

// startPersister snapshots the record registry on a fixed interval and on
// demand. A single goroutine serializes writes.
func (m *Module) startPersister() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.PersistInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.requestPersist()
			case <-m.persistCh:
				ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
				if err := m.store.SaveAll(ctx, m.snapshot()); err != nil {
					m.logger.Warn("failed to persist accuracy records", zap.Error(err))
				}
				cancel()
			}
		}
	}()
}
