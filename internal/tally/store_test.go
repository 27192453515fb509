package tally

import (
	"context"
	"testing"
	"time"

	"github.com/HerbHall/presage/internal/store"
)

func testTallyStore(t *testing.T) *TallyStore {
	t.Helper()
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), "tally", migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewTallyStore(db.DB())
}

func TestSaveAll_RoundTripsRecords(t *testing.T) {
	s := testTallyStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	actual := now.Add(-57 * time.Minute)
	accuracy := 1.0
	in := []Record{
		{
			ID:            "rec-1",
			PatternID:     "pattern-cpu_usage_disk_io-1m0s",
			AlertTypes:    []string{"cpu_usage", "disk_io"},
			PredictedTime: now.Add(-time.Hour),
			ActualTime:    &actual,
			Confidence:    0.8,
			Accuracy:      &accuracy,
			Verified:      true,
			CreatedAt:     now.Add(-2 * time.Hour),
		},
		{
			ID:            "rec-2",
			PatternID:     "pattern-mem_usage-1m0s",
			PredictedTime: now.Add(time.Hour),
			Confidence:    0.9,
			CreatedAt:     now.Add(-time.Hour),
		},
	}
	if err := s.SaveAll(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2", len(out))
	}
	// Insertion order follows created_at.
	if out[0].ID != "rec-1" || out[1].ID != "rec-2" {
		t.Fatalf("order = [%s %s], want [rec-1 rec-2]", out[0].ID, out[1].ID)
	}

	verified := out[0]
	if !verified.Verified || verified.ActualTime == nil || verified.Accuracy == nil {
		t.Fatalf("verification state lost: %+v", verified)
	}
	if len(verified.AlertTypes) != 2 || verified.AlertTypes[0] != "cpu_usage" || verified.AlertTypes[1] != "disk_io" {
		t.Errorf("alert types = %v, want [cpu_usage disk_io]", verified.AlertTypes)
	}
	if !verified.ActualTime.Equal(actual) {
		t.Errorf("actual time = %s, want %s", verified.ActualTime, actual)
	}
	if *verified.Accuracy != accuracy {
		t.Errorf("accuracy = %f, want %f", *verified.Accuracy, accuracy)
	}

	pending := out[1]
	if pending.Verified || pending.ActualTime != nil || pending.Accuracy != nil {
		t.Errorf("pending record gained verification state: %+v", pending)
	}
}

func TestSaveAll_ReplacesPriorSnapshot(t *testing.T) {
	s := testTallyStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first := []Record{{ID: "old", PatternID: "pattern-a-1m0s", PredictedTime: now, CreatedAt: now}}
	second := []Record{{ID: "new", PatternID: "pattern-b-1m0s", PredictedTime: now, CreatedAt: now}}

	if err := s.SaveAll(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := s.SaveAll(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	out, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out[0].ID != "new" {
		t.Fatalf("got %v, want only the second snapshot", out)
	}
}
