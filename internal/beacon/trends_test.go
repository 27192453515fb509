package beacon

import (
	"context"
	"testing"
	"time"

	"github.com/HerbHall/presage/internal/testutil"
	"github.com/HerbHall/presage/pkg/models"
)

func TestTrends_CountsHourAndDayWindows(t *testing.T) {
	m := testModule(t, 100)
	now := time.Now().UTC()

	// Two in the last hour, one earlier today, one older than a day.
	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType("cpu_usage"), testutil.WithTimestamp(now.Add(-10*time.Minute))))
	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType("cpu_usage"), testutil.WithTimestamp(now.Add(-30*time.Minute))))
	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType("cpu_usage"), testutil.WithTimestamp(now.Add(-5*time.Hour))))
	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType("cpu_usage"), testutil.WithTimestamp(now.Add(-26*time.Hour))))

	trends := m.Trends()

	if got := trends.LastHourByType["cpu_usage"]; got != 2 {
		t.Errorf("last hour count = %d, want 2", got)
	}
	if got := trends.LastDayByType["cpu_usage"]; got != 3 {
		t.Errorf("last day count = %d, want 3", got)
	}
	if got := trends.LastDayBySeverity[string(models.SeverityWarning)]; got != 3 {
		t.Errorf("last day warning count = %d, want 3", got)
	}
}

func TestTrends_ClassifiesDirection(t *testing.T) {
	m := testModule(t, 200)
	now := time.Now().UTC()

	// "rising": 10 alerts in the last hour out of 12 in the day. Hourly
	// average is 0.5, so the last hour is far above the tolerance band.
	for i := 0; i < 10; i++ {
		m.Record(context.Background(), testutil.NewAlert(
			testutil.WithType("rising"),
			testutil.WithTimestamp(now.Add(-time.Duration(i)*time.Minute))))
	}
	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType("rising"), testutil.WithTimestamp(now.Add(-3*time.Hour))))
	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType("rising"), testutil.WithTimestamp(now.Add(-6*time.Hour))))

	// "falling": none in the last hour, 12 spread across the day.
	for i := 0; i < 12; i++ {
		m.Record(context.Background(), testutil.NewAlert(
			testutil.WithType("falling"),
			testutil.WithTimestamp(now.Add(-time.Duration(2+i)*time.Hour))))
	}

	trends := m.Trends()

	if got := trends.ByType["rising"].Direction; got != "increasing" {
		t.Errorf("rising direction = %s, want increasing", got)
	}
	if got := trends.ByType["falling"].Direction; got != "decreasing" {
		t.Errorf("falling direction = %s, want decreasing", got)
	}
}
