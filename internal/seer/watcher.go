package seer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/presage/pkg/models"
	"github.com/HerbHall/presage/pkg/plugin"
	"go.uber.org/zap"
)

// checkState tracks the notification lifecycle for one predicted pattern.
// predictedAt holds the NextExpected that was last considered; when mining
// advances a pattern's prediction, notified resets so the new occurrence
// gets its own alert.
type checkState struct {
	nextCheckAt time.Time
	notified    bool
	predictedAt time.Time
}

// runChecks walks every upcoming prediction and emits a synthetic alert
// for those near enough and confident enough. Check cadence tightens as
// the predicted time approaches.
func (m *Module) runChecks() {
	now := time.Now().UTC()

	m.mu.Lock()
	live := make(map[string]struct{}, len(m.registry))
	type due struct {
		pattern models.Pattern
		state   *checkState
	}
	var candidates []due
	for id, p := range m.registry {
		if p.Prediction == nil || !p.Prediction.NextExpected.After(now) {
			continue
		}
		live[id] = struct{}{}

		dueIn := p.Prediction.NextExpected.Sub(now)
		state, ok := m.checks[id]
		if !ok {
			state = &checkState{
				nextCheckAt: now.Add(checkBackoff(dueIn)),
				predictedAt: p.Prediction.NextExpected,
			}
			m.checks[id] = state
		}
		if !state.predictedAt.Equal(p.Prediction.NextExpected) {
			state.predictedAt = p.Prediction.NextExpected
			state.notified = false
			state.nextCheckAt = now.Add(checkBackoff(dueIn))
		}
		if now.Before(state.nextCheckAt) {
			continue
		}
		state.nextCheckAt = now.Add(checkBackoff(dueIn))
		candidates = append(candidates, due{pattern: *p, state: state})
	}
	// Drop state for patterns that vanished or whose prediction passed.
	for id := range m.checks {
		if _, ok := live[id]; !ok {
			delete(m.checks, id)
		}
	}
	m.mu.Unlock()

	for _, c := range candidates {
		if c.state.notified || c.pattern.Prediction.Confidence < m.cfg.NotifyConfidence {
			continue
		}
		m.emitPrediction(c.pattern, now)
		m.mu.Lock()
		c.state.notified = true
		m.mu.Unlock()
	}
}

// checkBackoff returns how long to wait before re-checking a prediction
// that is dueIn away.
func checkBackoff(dueIn time.Duration) time.Duration {
	switch {
	case dueIn <= time.Hour:
		return 5 * time.Minute
	case dueIn <= 24*time.Hour:
		return time.Hour
	default:
		return 6 * time.Hour
	}
}

// emitPrediction records a synthetic alert announcing the predicted
// occurrence and registers the prediction with the accuracy ledger.
func (m *Module) emitPrediction(p models.Pattern, now time.Time) {
	dueIn := p.Prediction.NextExpected.Sub(now)
	alert := models.Alert{
		Type:      models.TypePredictedPattern,
		Value:     p.Prediction.Confidence,
		Threshold: m.cfg.NotifyConfidence,
		Severity:  models.SeverityWarning,
		Timestamp: now,
		Message: fmt.Sprintf("Pattern [%s] expected in %s (confidence %.2f)",
			strings.Join(p.AlertTypes, ", "), humanizeDuration(dueIn), p.Prediction.Confidence),
	}

	if m.ledger != nil {
		m.ledger.RecordPrediction(p)
	}
	if m.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		m.recorder.Record(ctx, alert)
		cancel()
	}

	predictionsEmitted.Inc()
	if m.bus != nil {
		m.bus.PublishAsync(context.Background(), plugin.Event{
			Topic:     TopicPredictionEmitted,
			Source:    "seer",
			Timestamp: now,
			Payload:   &p,
		})
	}
	m.logger.Info("prediction alert emitted",
		zap.String("pattern_id", p.ID),
		zap.Duration("due_in", dueIn),
		zap.Float64("confidence", p.Prediction.Confidence),
	)
}

// humanizeDuration renders a duration the way an operator reads it:
// whole minutes under an hour, hours and minutes beyond.
func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return "under a minute"
	}
	d = d.Round(time.Minute)
	h := d / time.Hour
	min := (d % time.Hour) / time.Minute
	if h == 0 {
		return fmt.Sprintf("%dm", min)
	}
	if min == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%dm", h, min)
}
