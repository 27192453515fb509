package insight

import (
	"sort"
	"time"

	"github.com/HerbHall/presage/pkg/analytics"
	"github.com/HerbHall/presage/pkg/models"
)

// strengthFloor hides irregular types: only strengths above it are
// reported.
const strengthFloor = 0.5

// ComputePatternStrengths measures, per alert type, how regular the
// inter-arrival intervals are: 1 means perfectly periodic, 0 means the
// gap spread equals or exceeds the mean gap.
func ComputePatternStrengths(alerts []models.Alert) []analytics.PatternStrength {
	byType := make(map[string][]time.Time)
	for _, a := range alerts {
		byType[a.Type] = append(byType[a.Type], a.Timestamp)
	}

	var out []analytics.PatternStrength
	for alertType, stamps := range byType {
		if len(stamps) < 3 {
			continue
		}
		sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

		gaps := make([]float64, 0, len(stamps)-1)
		for i := 1; i < len(stamps); i++ {
			gaps = append(gaps, stamps[i].Sub(stamps[i-1]).Seconds())
		}
		meanGap, stddev := meanStddev(gaps)
		if meanGap <= 0 {
			continue
		}
		strength := 1 - stddev/meanGap
		if strength < 0 {
			strength = 0
		}
		if strength <= strengthFloor {
			continue
		}
		out = append(out, analytics.PatternStrength{
			AlertType:   alertType,
			Strength:    strength,
			MeanGap:     time.Duration(meanGap * float64(time.Second)),
			Occurrences: len(stamps),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	return out
}
