// Package insight derives on-demand analytics — trend, seasonality,
// distributions, forecast, and pattern strength — from alert history.
// Every derivation is a pure function over the supplied slice; the module
// holds no mutable state of its own.
package insight

import (
	"math"

	"github.com/HerbHall/presage/pkg/analytics"
	"github.com/HerbHall/presage/pkg/models"
)

// stableSlope is the |slope| band inside which a series counts as flat.
const stableSlope = 0.1

// ComputeTrend fits a least-squares line to alert values in index order
// and classifies the slope.
func ComputeTrend(alerts []models.Alert) analytics.Trend {
	n := len(alerts)
	if n < 2 {
		return analytics.Trend{Direction: analytics.TrendStable, Samples: n}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, a := range alerts {
		x := float64(i)
		sumX += x
		sumY += a.Value
		sumXY += x * a.Value
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return analytics.Trend{Direction: analytics.TrendStable, Samples: n}
	}
	slope := (fn*sumXY - sumX*sumY) / denom

	direction := analytics.TrendStable
	switch {
	case slope > stableSlope:
		direction = analytics.TrendIncreasing
	case slope < -stableSlope:
		direction = analytics.TrendDecreasing
	}
	return analytics.Trend{Direction: direction, Slope: slope, Samples: n}
}

func meanStddev(xs []float64) (mean, stddev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs))
	return mean, math.Sqrt(variance)
}
