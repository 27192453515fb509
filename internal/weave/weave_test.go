package weave

import (
	"context"
	"testing"
	"time"

	"github.com/HerbHall/presage/internal/store"
	"github.com/HerbHall/presage/internal/testutil"
	"github.com/HerbHall/presage/pkg/plugin"
	"github.com/HerbHall/presage/pkg/plugin/plugintest"
	"go.uber.org/zap"
)

func testWeaveModule(t *testing.T) *Module {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), "weave", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := New()
	m.logger = zap.NewNop()
	m.cfg = DefaultConfig()
	m.store = NewWeaveStore(db.DB())
	m.ctx, m.cancel = context.WithCancel(context.Background())
	t.Cleanup(m.cancel)
	m.current = m.newBatch(time.Now().UTC())
	return m
}

func TestAddAlert_AppendsOnlyToOpenBatch(t *testing.T) {
	m := testWeaveModule(t)

	m.AddAlert(testutil.NewAlert())
	if got := len(m.current.Alerts); got != 1 {
		t.Fatalf("open batch holds %d alerts, want 1", got)
	}

	m.current.Processed = true
	m.AddAlert(testutil.NewAlert())
	if got := len(m.current.Alerts); got != 1 {
		t.Errorf("closed batch accepted an alert: %d alerts", got)
	}
}

func TestRotate_ArchivesAndOpensNextBatch(t *testing.T) {
	m := testWeaveModule(t)
	firstID := m.current.ID

	now := time.Now().UTC()
	m.AddAlert(testutil.NewAlert(testutil.WithTimestamp(now)))
	m.AddAlert(testutil.NewAlert(testutil.WithTimestamp(now.Add(30 * time.Second))))

	m.rotate()

	if m.current.ID == firstID {
		t.Error("rotate did not open a new batch")
	}
	if len(m.current.Alerts) != 0 {
		t.Error("new batch is not empty")
	}

	archived, _, err := m.store.ListUnmined(context.Background())
	if err != nil {
		t.Fatalf("ListUnmined() error = %v", err)
	}
	if len(archived) != 1 {
		t.Fatalf("archived %d batches, want 1", len(archived))
	}
	if !archived[0].Processed {
		t.Error("archived batch not marked processed")
	}
	if len(archived[0].Correlations) != 2 {
		t.Errorf("archived batch has %d correlations, want 2", len(archived[0].Correlations))
	}
}

func TestRotate_SkipsEmptyBatch(t *testing.T) {
	m := testWeaveModule(t)

	m.rotate()

	archived, _, err := m.store.ListUnmined(context.Background())
	if err != nil {
		t.Fatalf("ListUnmined() error = %v", err)
	}
	if len(archived) != 0 {
		t.Errorf("empty batch was archived: %d batches", len(archived))
	}
}

func TestHandleAlertRecorded_FeedsCurrentBatch(t *testing.T) {
	m := testWeaveModule(t)

	alert := testutil.NewAlert()
	m.handleAlertRecorded(context.Background(), plugin.Event{
		Topic:   TopicAlertRecorded,
		Payload: &alert,
	})

	if got := len(m.current.Alerts); got != 1 {
		t.Errorf("batch holds %d alerts after event, want 1", got)
	}

	// Unexpected payload types are dropped, not panicked on.
	m.handleAlertRecorded(context.Background(), plugin.Event{
		Topic:   TopicAlertRecorded,
		Payload: "not an alert",
	})
	if got := len(m.current.Alerts); got != 1 {
		t.Errorf("batch holds %d alerts after bad payload, want 1", got)
	}
}

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New() })
}
