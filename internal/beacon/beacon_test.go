package beacon

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HerbHall/presage/internal/testutil"
	"github.com/HerbHall/presage/pkg/models"
	"github.com/HerbHall/presage/pkg/plugin"
	"github.com/HerbHall/presage/pkg/plugin/plugintest"
	"go.uber.org/zap"
)

func testModule(t *testing.T, limit int) *Module {
	t.Helper()
	m := New()
	m.logger = zap.NewNop()
	m.cfg = DefaultConfig()
	m.cfg.HistoryLimit = limit
	m.dispatcher = NewDispatcher(nil, m.cfg.NotifyTimeout, m.logger)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { m.Stop(context.Background()) })
	return m
}

func TestRecord_FillsIDAndTimestamp(t *testing.T) {
	m := testModule(t, 10)

	got := m.Record(context.Background(), models.Alert{Type: "cpu_usage", Severity: models.SeverityWarning})
	if got.ID == "" {
		t.Error("Record() did not assign an id")
	}
	if got.Timestamp.IsZero() {
		t.Error("Record() did not assign a timestamp")
	}
}

func TestRecord_HistoryCapEvictsOldestFirst(t *testing.T) {
	m := testModule(t, 5)

	for i := 0; i < 8; i++ {
		m.Record(context.Background(), testutil.NewAlert(
			testutil.WithType(fmt.Sprintf("type-%d", i)),
		))
	}

	history := m.History()
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5", len(history))
	}
	// The three oldest entries are gone; type-3 is now the oldest.
	if history[0].Type != "type-3" {
		t.Errorf("oldest entry = %s, want type-3", history[0].Type)
	}
	if history[4].Type != "type-7" {
		t.Errorf("newest entry = %s, want type-7", history[4].Type)
	}
}

func TestRecord_TriggersVerifierForRealAlerts(t *testing.T) {
	m := testModule(t, 10)

	var verified atomic.Int64
	m.SetVerifier(verifierFunc(func(_ context.Context, _ models.Alert) {
		verified.Add(1)
	}))

	m.Record(context.Background(), testutil.NewAlert())
	if verified.Load() != 1 {
		t.Errorf("verifier called %d times for real alert, want 1", verified.Load())
	}
}

func TestRecord_SkipsVerifierForSyntheticAlerts(t *testing.T) {
	m := testModule(t, 10)

	var verified atomic.Int64
	m.SetVerifier(verifierFunc(func(_ context.Context, _ models.Alert) {
		verified.Add(1)
	}))

	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType(models.TypePredictedPattern),
	))
	if verified.Load() != 0 {
		t.Errorf("verifier called %d times for synthetic alert, want 0", verified.Load())
	}
}

func TestQuery_AppliesFilters(t *testing.T) {
	m := testModule(t, 20)
	base := time.Now().UTC().Add(-time.Hour)

	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType("cpu_usage"),
		testutil.WithSeverity(models.SeverityWarning),
		testutil.WithTimestamp(base),
	))
	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType("disk_io"),
		testutil.WithSeverity(models.SeverityCritical),
		testutil.WithTimestamp(base.Add(10*time.Minute)),
	))
	m.Record(context.Background(), testutil.NewAlert(
		testutil.WithType("cpu_usage"),
		testutil.WithSeverity(models.SeverityCritical),
		testutil.WithTimestamp(base.Add(20*time.Minute)),
	))

	got := m.Query(models.AlertFilter{Type: "cpu_usage"})
	if len(got) != 2 {
		t.Errorf("type filter returned %d alerts, want 2", len(got))
	}

	got = m.Query(models.AlertFilter{Severity: models.SeverityCritical})
	if len(got) != 2 {
		t.Errorf("severity filter returned %d alerts, want 2", len(got))
	}

	got = m.Query(models.AlertFilter{From: base.Add(5 * time.Minute)})
	if len(got) != 2 {
		t.Errorf("from filter returned %d alerts, want 2", len(got))
	}
}

// verifierFunc adapts a function to the PredictionVerifier interface.
type verifierFunc func(ctx context.Context, alert models.Alert)

func (f verifierFunc) VerifyAlert(ctx context.Context, alert models.Alert) { f(ctx, alert) }

// failingNotifier always errors; used to prove channel fault isolation.
type failingNotifier struct{}

func (failingNotifier) Notify(_ context.Context, _ *models.Alert) error {
	return fmt.Errorf("delivery refused")
}
func (failingNotifier) Type() string { return "failing" }

// countingNotifier records successful deliveries.
type countingNotifier struct{ count atomic.Int64 }

func (c *countingNotifier) Notify(_ context.Context, _ *models.Alert) error {
	c.count.Add(1)
	return nil
}
func (c *countingNotifier) Type() string { return "counting" }

func TestDispatch_OneFailingChannelDoesNotBlockOthers(t *testing.T) {
	counting := &countingNotifier{}
	d := &Dispatcher{
		channels: []channel{
			{name: "bad", notifier: failingNotifier{}},
			{name: "good", notifier: counting},
		},
		timeout: time.Second,
		logger:  zap.NewNop(),
	}

	alert := testutil.NewAlert()
	d.Dispatch(context.Background(), &alert)

	if counting.count.Load() != 1 {
		t.Errorf("healthy channel delivered %d times, want 1", counting.count.Load())
	}
}

func TestRecord_NeverFailsOnDeliveryFailure(t *testing.T) {
	m := testModule(t, 10)
	m.dispatcher = &Dispatcher{
		channels: []channel{{name: "bad", notifier: failingNotifier{}}},
		timeout:  time.Second,
		logger:   zap.NewNop(),
	}

	// Record must return normally; delivery failures stay internal.
	got := m.Record(context.Background(), testutil.NewAlert())
	if got.ID == "" {
		t.Error("Record() failed in the face of a delivery error")
	}
}

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() })
}
