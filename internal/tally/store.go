package tally

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// TallyStore persists accuracy records, one row per record.
type TallyStore struct {
	db *sql.DB
}

// NewTallyStore creates a store over an already-migrated database.
func NewTallyStore(db *sql.DB) *TallyStore {
	return &TallyStore{db: db}
}

// LoadAll reads every persisted record in insertion order.
func (s *TallyStore) LoadAll(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pattern_id, alert_types, predicted_time, actual_time, confidence,
		       accuracy, verified, created_at
		FROM tally_records
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("load accuracy records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			rec        Record
			typesJSON  string
			actualTime sql.NullTime
			accuracy   sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.PatternID, &typesJSON, &rec.PredictedTime, &actualTime,
			&rec.Confidence, &accuracy, &rec.Verified, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan accuracy row: %w", err)
		}
		if err := json.Unmarshal([]byte(typesJSON), &rec.AlertTypes); err != nil {
			return nil, fmt.Errorf("decode alert types for %s: %w", rec.ID, err)
		}
		if actualTime.Valid {
			t := actualTime.Time
			rec.ActualTime = &t
		}
		if accuracy.Valid {
			a := accuracy.Float64
			rec.Accuracy = &a
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// SaveAll replaces the persisted records with the given snapshot in one
// transaction. Callers serialize invocations through the module's persist
// queue so a slow write can never clobber a newer snapshot.
func (s *TallyStore) SaveAll(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin records tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM tally_records"); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	for i := range records {
		rec := &records[i]

		var actualTime sql.NullTime
		if rec.ActualTime != nil {
			actualTime = sql.NullTime{Time: *rec.ActualTime, Valid: true}
		}
		var accuracy sql.NullFloat64
		if rec.Accuracy != nil {
			accuracy = sql.NullFloat64{Float64: *rec.Accuracy, Valid: true}
		}

		typesJSON, err := json.Marshal(rec.AlertTypes)
		if err != nil {
			return fmt.Errorf("encode alert types for %s: %w", rec.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tally_records
				(id, pattern_id, alert_types, predicted_time, actual_time, confidence,
				 accuracy, verified, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.PatternID, string(typesJSON), rec.PredictedTime, actualTime, rec.Confidence,
			accuracy, rec.Verified, rec.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}
