package weave

import (
	"testing"
	"time"

	"github.com/HerbHall/presage/internal/testutil"
	"github.com/HerbHall/presage/pkg/models"
)

var correlationWindow = 60 * time.Second

func TestCorrelate_WindowBoundary(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("59s_apart_correlates", func(t *testing.T) {
		alerts := []models.Alert{
			testutil.NewAlert(testutil.WithTimestamp(base)),
			testutil.NewAlert(testutil.WithTimestamp(base.Add(59 * time.Second))),
		}
		got := Correlate(alerts, correlationWindow)
		if len(got) != 2 {
			t.Errorf("got %d correlations, want 2 (one per alert)", len(got))
		}
	})

	t.Run("61s_apart_never_correlates", func(t *testing.T) {
		alerts := []models.Alert{
			testutil.NewAlert(testutil.WithTimestamp(base)),
			testutil.NewAlert(testutil.WithTimestamp(base.Add(61 * time.Second))),
		}
		if got := Correlate(alerts, correlationWindow); len(got) != 0 {
			t.Errorf("got %d correlations, want 0", len(got))
		}
	})
}

func TestCorrelate_ClassifiesKind(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	alerts := []models.Alert{
		testutil.NewAlert(testutil.WithType("a"), testutil.WithTimestamp(base)),
		testutil.NewAlert(testutil.WithType("b"), testutil.WithTimestamp(base.Add(10*time.Second))),
		testutil.NewAlert(testutil.WithType("c"), testutil.WithTimestamp(base.Add(20*time.Second))),
	}

	got := Correlate(alerts, correlationWindow)
	if len(got) != 3 {
		t.Fatalf("got %d correlations, want 3", len(got))
	}

	kinds := make(map[string]models.CorrelationKind)
	for _, c := range got {
		kinds[c.Primary.Type] = c.Kind
	}
	if kinds["a"] != models.CorrelationCause {
		t.Errorf("earliest alert kind = %s, want cause", kinds["a"])
	}
	if kinds["b"] != models.CorrelationRelated {
		t.Errorf("middle alert kind = %s, want related", kinds["b"])
	}
	if kinds["c"] != models.CorrelationEffect {
		t.Errorf("latest alert kind = %s, want effect", kinds["c"])
	}
}

func TestCorrelate_TiedTimestampsAreRelated(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	alerts := []models.Alert{
		testutil.NewAlert(testutil.WithType("a"), testutil.WithTimestamp(base)),
		testutil.NewAlert(testutil.WithType("b"), testutil.WithTimestamp(base)),
	}

	got := Correlate(alerts, correlationWindow)
	for _, c := range got {
		if c.Kind != models.CorrelationRelated {
			t.Errorf("tied-timestamp kind = %s, want related", c.Kind)
		}
	}
}

func TestCorrelate_ConfidenceBlendsFactors(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Same type, different severity, 30 seconds apart: proximity
	// 1/(1+30/60) = 2/3, type share 1, severity share 0.
	alerts := []models.Alert{
		testutil.NewAlert(testutil.WithTimestamp(base),
			testutil.WithSeverity(models.SeverityWarning)),
		testutil.NewAlert(testutil.WithTimestamp(base.Add(30*time.Second)),
			testutil.WithSeverity(models.SeverityCritical)),
	}

	got := Correlate(alerts, correlationWindow)
	if len(got) != 2 {
		t.Fatalf("got %d correlations, want 2", len(got))
	}
	for _, c := range got {
		want := 0.4*(2.0/3.0) + 0.3
		if diff := c.Confidence - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("confidence = %f, want %f", c.Confidence, want)
		}
		if c.Confidence <= 0.5 {
			t.Errorf("confidence %f should exceed 0.5 for a same-type pair 30s apart", c.Confidence)
		}
	}
}

func TestCorrelate_SingleAlertYieldsNothing(t *testing.T) {
	alerts := []models.Alert{testutil.NewAlert()}
	if got := Correlate(alerts, correlationWindow); got != nil {
		t.Errorf("got %d correlations for a single alert, want none", len(got))
	}
}
