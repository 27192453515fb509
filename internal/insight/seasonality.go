package insight

import (
	"github.com/HerbHall/presage/pkg/analytics"
	"github.com/HerbHall/presage/pkg/models"
)

// seasonalCV is the coefficient-of-variation threshold above which a
// period's bucket volumes count as seasonal.
const seasonalCV = 0.2

var seasonalPeriods = []struct {
	name  string
	hours int
}{
	{"daily", 24},
	{"weekly", 168},
	{"monthly", 720},
}

// ComputeSeasonality buckets alert volume into hourly slots repeated over
// daily, weekly, and monthly periods and flags periods whose bucket sums
// vary enough to indicate recurrence.
func ComputeSeasonality(alerts []models.Alert) []analytics.Seasonality {
	out := make([]analytics.Seasonality, 0, len(seasonalPeriods))
	for _, period := range seasonalPeriods {
		buckets := make([]float64, period.hours)
		for _, a := range alerts {
			slot := int(a.Timestamp.Unix()/3600) % period.hours
			if slot < 0 {
				slot += period.hours
			}
			buckets[slot]++
		}

		mean, stddev := meanStddev(buckets)
		var cv float64
		if mean > 0 {
			cv = stddev / mean
		}
		out = append(out, analytics.Seasonality{
			Period:      period.name,
			BucketHours: period.hours,
			Variation:   cv,
			Seasonal:    len(alerts) > 0 && cv > seasonalCV,
		})
	}
	return out
}
