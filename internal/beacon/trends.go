package beacon

import "time"

// TrendDirectionThreshold is the tolerance band around the daily average
// before an alert type is classified as rising or falling.
const trendTolerance = 0.2

// TypeTrend is the best-effort volume classification for one alert type.
type TypeTrend struct {
	HourCount int    `json:"hour_count"`
	DayCount  int    `json:"day_count"`
	Direction string `json:"direction"` // "increasing", "decreasing", "stable"
}

// Trends holds hourly and daily alert rollups.
type Trends struct {
	LastHourByType     map[string]int       `json:"last_hour_by_type"`
	LastHourBySeverity map[string]int       `json:"last_hour_by_severity"`
	LastDayByType      map[string]int       `json:"last_day_by_type"`
	LastDayBySeverity  map[string]int       `json:"last_day_by_severity"`
	ByType             map[string]TypeTrend `json:"by_type"`
	GeneratedAt        time.Time            `json:"generated_at"`
}

// Trends computes counts over the last hour and day grouped by type and
// severity, plus a per-type direction: the last hour's volume compared
// against the daily hourly average with a tolerance band.
func (m *Module) Trends() Trends {
	now := time.Now().UTC()
	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-24 * time.Hour)

	t := Trends{
		LastHourByType:     make(map[string]int),
		LastHourBySeverity: make(map[string]int),
		LastDayByType:      make(map[string]int),
		LastDayBySeverity:  make(map[string]int),
		ByType:             make(map[string]TypeTrend),
		GeneratedAt:        now,
	}

	m.mu.RLock()
	for i := range m.history {
		a := &m.history[i]
		if a.Timestamp.Before(dayAgo) {
			continue
		}
		t.LastDayByType[a.Type]++
		t.LastDayBySeverity[string(a.Severity)]++
		if !a.Timestamp.Before(hourAgo) {
			t.LastHourByType[a.Type]++
			t.LastHourBySeverity[string(a.Severity)]++
		}
	}
	m.mu.RUnlock()

	for typ, dayCount := range t.LastDayByType {
		hourCount := t.LastHourByType[typ]
		hourlyAvg := float64(dayCount) / 24.0
		direction := "stable"
		switch {
		case float64(hourCount) > hourlyAvg*(1+trendTolerance):
			direction = "increasing"
		case float64(hourCount) < hourlyAvg*(1-trendTolerance):
			direction = "decreasing"
		}
		t.ByType[typ] = TypeTrend{
			HourCount: hourCount,
			DayCount:  dayCount,
			Direction: direction,
		}
	}

	return t
}
