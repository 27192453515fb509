package tally

import "time"

// Verification tolerances. An actual alert further than tolerance from
// the predicted time never verifies a record; within exactWindow the
// prediction counts as fully accurate.
const (
	tolerance   = 30 * time.Minute
	exactWindow = 5 * time.Minute
)

// Record is one emitted prediction awaiting (or holding) verification.
// A record is verified at most once. AlertTypes carries the pattern's
// constituent types so real alerts can be matched to pending records
// without parsing the pattern id.
type Record struct {
	ID            string     `json:"id"`
	PatternID     string     `json:"patternId"`
	AlertTypes    []string   `json:"alertTypes,omitempty"`
	PredictedTime time.Time  `json:"predictedTime"`
	ActualTime    *time.Time `json:"actualTime,omitempty"`
	Confidence    float64    `json:"confidence"`
	Accuracy      *float64   `json:"accuracy,omitempty"`
	Verified      bool       `json:"verified"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// covers reports whether the record's pattern includes the alert type.
func (r *Record) covers(alertType string) bool {
	for _, t := range r.AlertTypes {
		if t == alertType {
			return true
		}
	}
	return false
}

// scoreAccuracy maps the gap between predicted and actual occurrence to
// a 0..1 accuracy: 1.0 inside the exact window, linear decay to 0 at the
// tolerance edge.
func scoreAccuracy(predicted, actual time.Time) float64 {
	gap := actual.Sub(predicted)
	if gap < 0 {
		gap = -gap
	}
	if gap <= exactWindow {
		return 1.0
	}
	if gap >= tolerance {
		return 0
	}
	return 1 - float64(gap-exactWindow)/float64(tolerance-exactWindow)
}

// Metrics is the aggregate accuracy report.
type Metrics struct {
	TotalPredictions       int                        `json:"totalPredictions"`
	VerifiedPredictions    int                        `json:"verifiedPredictions"`
	MeanAccuracy           float64                    `json:"meanAccuracy"`
	HighConfidenceAccuracy float64                    `json:"highConfidenceAccuracy"`
	Patterns               map[string]PatternAccuracy `json:"patterns"`
	RecentTrend            TrendSignal                `json:"recentTrend"`
}

// PatternAccuracy is the per-pattern accuracy breakdown.
type PatternAccuracy struct {
	Predictions  int     `json:"predictions"`
	Verified     int     `json:"verified"`
	MeanAccuracy float64 `json:"meanAccuracy"`
	Trend        string  `json:"trend"`
}

// TrendSignal compares recent verified accuracy against the preceding
// window. Confidence scales with how many records backed the comparison.
type TrendSignal struct {
	Direction  string  `json:"direction"`
	Delta      float64 `json:"delta"`
	Confidence float64 `json:"confidence"`
}

const (
	trendImproving = "improving"
	trendDegrading = "degrading"
	trendStable    = "stable"
)
