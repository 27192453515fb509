package weave

import (
	"context"
	"testing"
	"time"

	"github.com/HerbHall/presage/internal/store"
	"github.com/HerbHall/presage/internal/testutil"
	"github.com/HerbHall/presage/pkg/models"
	"github.com/google/uuid"
)

func testWeaveStore(t *testing.T) *WeaveStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), "weave", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewWeaveStore(db.DB())
}

func archivedBatch(ts time.Time) *models.Batch {
	return &models.Batch{
		ID:        uuid.New().String(),
		Alerts:    []models.Alert{testutil.NewAlert(testutil.WithTimestamp(ts))},
		CreatedAt: ts,
		Processed: true,
	}
}

func TestArchiveBatch_RoundTrips(t *testing.T) {
	s := testWeaveStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := archivedBatch(now)
	batch.Correlations = Correlate([]models.Alert{
		testutil.NewAlert(testutil.WithTimestamp(now)),
		testutil.NewAlert(testutil.WithTimestamp(now.Add(30 * time.Second))),
	}, time.Minute)

	if err := s.ArchiveBatch(ctx, batch, now); err != nil {
		t.Fatalf("ArchiveBatch() error = %v", err)
	}

	got, skipped, err := s.ListUnmined(ctx)
	if err != nil {
		t.Fatalf("ListUnmined() error = %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped %d batches, want 0", len(skipped))
	}
	if len(got) != 1 {
		t.Fatalf("got %d unmined batches, want 1", len(got))
	}
	if got[0].ID != batch.ID {
		t.Errorf("batch id = %s, want %s", got[0].ID, batch.ID)
	}
	if len(got[0].Alerts) != 1 || len(got[0].Correlations) != 2 {
		t.Errorf("batch contents lost: %d alerts, %d correlations",
			len(got[0].Alerts), len(got[0].Correlations))
	}
}

func TestMarkMined_ExcludesFromFutureCycles(t *testing.T) {
	s := testWeaveStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	batch := archivedBatch(now)
	if err := s.ArchiveBatch(ctx, batch, now); err != nil {
		t.Fatalf("ArchiveBatch() error = %v", err)
	}

	if err := s.MarkMined(ctx, []string{batch.ID}, now); err != nil {
		t.Fatalf("MarkMined() error = %v", err)
	}

	got, _, err := s.ListUnmined(ctx)
	if err != nil {
		t.Fatalf("ListUnmined() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("mined batch still listed: %d batches", len(got))
	}

	// Marking again is harmless.
	if err := s.MarkMined(ctx, []string{batch.ID}, now); err != nil {
		t.Errorf("repeat MarkMined() error = %v", err)
	}
}

func TestListUnmined_SkipsMalformedRows(t *testing.T) {
	s := testWeaveStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	good := archivedBatch(now)
	if err := s.ArchiveBatch(ctx, good, now); err != nil {
		t.Fatalf("ArchiveBatch() error = %v", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weave_batches (id, created_at, closed_at, processed, alerts, correlations)
		VALUES ('corrupt', ?, ?, 1, 'not json', '[]')`, now, now)
	if err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	got, skipped, err := s.ListUnmined(ctx)
	if err != nil {
		t.Fatalf("ListUnmined() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != good.ID {
		t.Errorf("good batch not returned alongside corrupt row")
	}
	if len(skipped) != 1 || skipped[0] != "corrupt" {
		t.Errorf("skipped = %v, want [corrupt]", skipped)
	}
}

func TestDeleteBefore_PurgesOldBatches(t *testing.T) {
	s := testWeaveStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := archivedBatch(now.Add(-48 * time.Hour))
	recent := archivedBatch(now)
	if err := s.ArchiveBatch(ctx, old, now.Add(-48*time.Hour)); err != nil {
		t.Fatalf("ArchiveBatch(old) error = %v", err)
	}
	if err := s.ArchiveBatch(ctx, recent, now); err != nil {
		t.Fatalf("ArchiveBatch(recent) error = %v", err)
	}

	deleted, err := s.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted %d batches, want 1", deleted)
	}

	remaining, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != recent.ID {
		t.Errorf("wrong batch survived the purge")
	}
}
