package insight

import (
	"sort"
	"time"

	"github.com/HerbHall/presage/pkg/analytics"
	"github.com/HerbHall/presage/pkg/models"
)

// Hour-of-day load factors applied to the forecast baseline.
const (
	businessHourFactor = 1.2 // 09:00-17:59
	nightHourFactor    = 0.8 // 00:00-05:59
)

// ComputeForecast projects the next 24 hourly values: median of the last
// 24 alert values, scaled by the trend direction and an hour-of-day factor.
func ComputeForecast(alerts []models.Alert, now time.Time) analytics.Forecast {
	trend := ComputeTrend(alerts)

	values := make([]float64, 0, 24)
	start := len(alerts) - 24
	if start < 0 {
		start = 0
	}
	for _, a := range alerts[start:] {
		values = append(values, a.Value)
	}
	baseline := median(values)

	multiplier := 1.0
	switch trend.Direction {
	case analytics.TrendIncreasing:
		multiplier = 1.1
	case analytics.TrendDecreasing:
		multiplier = 0.9
	}

	now = now.UTC().Truncate(time.Hour)
	points := make([]analytics.ForecastPoint, 0, 24)
	for h := 1; h <= 24; h++ {
		ts := now.Add(time.Duration(h) * time.Hour)
		points = append(points, analytics.ForecastPoint{
			Timestamp: ts,
			Value:     baseline * multiplier * hourFactor(ts.Hour()),
		})
	}
	return analytics.Forecast{
		Baseline:    baseline,
		Trend:       trend.Direction,
		Points:      points,
		GeneratedAt: now,
	}
}

func hourFactor(hour int) float64 {
	switch {
	case hour >= 9 && hour < 18:
		return businessHourFactor
	case hour < 6:
		return nightHourFactor
	default:
		return 1.0
	}
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
