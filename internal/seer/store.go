package seer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HerbHall/presage/pkg/models"
)

// SeerStore persists the pattern registry, one row per pattern.
type SeerStore struct {
	db *sql.DB
}

// NewSeerStore creates a store over an already-migrated database.
func NewSeerStore(db *sql.DB) *SeerStore {
	return &SeerStore{db: db}
}

// LoadAll reads the full persisted registry. Rows with undecodable type
// lists are skipped and their ids returned so the caller can warn.
func (s *SeerStore) LoadAll(ctx context.Context) (patterns []models.Pattern, skipped []string, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, alert_types, time_window_ms, severity, frequency,
		       occurrences, first_seen, last_seen, next_expected, confidence
		FROM seer_patterns`)
	if err != nil {
		return nil, nil, fmt.Errorf("load patterns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p            models.Pattern
			typesJSON    string
			windowMS     int64
			nextExpected sql.NullTime
			confidence   sql.NullFloat64
		)
		if err := rows.Scan(&p.ID, &typesJSON, &windowMS, &p.Severity, &p.Frequency,
			&p.Occurrences, &p.FirstSeen, &p.LastSeen, &nextExpected, &confidence); err != nil {
			return nil, nil, fmt.Errorf("scan pattern row: %w", err)
		}
		if json.Unmarshal([]byte(typesJSON), &p.AlertTypes) != nil {
			skipped = append(skipped, p.ID)
			continue
		}
		p.TimeWindow = time.Duration(windowMS) * time.Millisecond
		if nextExpected.Valid && confidence.Valid {
			p.Prediction = &models.Prediction{
				NextExpected: nextExpected.Time,
				Confidence:   confidence.Float64,
			}
		}
		patterns = append(patterns, p)
	}
	return patterns, skipped, rows.Err()
}

// SaveAll replaces the persisted registry with the given snapshot in one
// transaction. Callers serialize invocations through the module's persist
// queue so a slow write can never clobber a newer snapshot.
func (s *SeerStore) SaveAll(ctx context.Context, patterns []models.Pattern) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM seer_patterns"); err != nil {
		return fmt.Errorf("clear registry: %w", err)
	}

	for i := range patterns {
		p := &patterns[i]
		typesJSON, err := json.Marshal(p.AlertTypes)
		if err != nil {
			return fmt.Errorf("marshal types for %s: %w", p.ID, err)
		}

		var nextExpected sql.NullTime
		var confidence sql.NullFloat64
		if p.Prediction != nil {
			nextExpected = sql.NullTime{Time: p.Prediction.NextExpected, Valid: true}
			confidence = sql.NullFloat64{Float64: p.Prediction.Confidence, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO seer_patterns
				(id, alert_types, time_window_ms, severity, frequency,
				 occurrences, first_seen, last_seen, next_expected, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, string(typesJSON), p.TimeWindow.Milliseconds(), p.Severity, p.Frequency,
			p.Occurrences, p.FirstSeen, p.LastSeen, nextExpected, confidence,
		); err != nil {
			return fmt.Errorf("insert pattern %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}
