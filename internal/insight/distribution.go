package insight

import (
	"github.com/HerbHall/presage/pkg/analytics"
	"github.com/HerbHall/presage/pkg/models"
)

// ComputeDistribution groups alert counts by hour of day, day of week,
// type, and severity.
func ComputeDistribution(alerts []models.Alert) analytics.Distribution {
	dist := analytics.Distribution{
		ByHourOfDay: make(map[int]int),
		ByDayOfWeek: make(map[string]int),
		ByType:      make(map[string]int),
		BySeverity:  make(map[string]int),
	}
	for _, a := range alerts {
		t := a.Timestamp.UTC()
		dist.ByHourOfDay[t.Hour()]++
		dist.ByDayOfWeek[t.Weekday().String()]++
		dist.ByType[a.Type]++
		dist.BySeverity[string(a.Severity)]++
	}
	return dist
}
