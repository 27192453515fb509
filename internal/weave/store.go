package weave

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/HerbHall/presage/pkg/models"
)

// WeaveStore persists closed batches as one row per batch with
// JSON-encoded alert and correlation payloads.
type WeaveStore struct {
	db *sql.DB
}

// NewWeaveStore creates a store over an already-migrated database.
func NewWeaveStore(db *sql.DB) *WeaveStore {
	return &WeaveStore{db: db}
}

// ArchiveBatch writes a closed batch. The batch row is immutable afterward
// except for the mined_at marker.
func (s *WeaveStore) ArchiveBatch(ctx context.Context, batch *models.Batch, closedAt time.Time) error {
	alerts, err := json.Marshal(batch.Alerts)
	if err != nil {
		return fmt.Errorf("marshal batch alerts: %w", err)
	}
	correlations, err := json.Marshal(batch.Correlations)
	if err != nil {
		return fmt.Errorf("marshal batch correlations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO weave_batches
			(id, created_at, closed_at, processed, mined_at, alerts, correlations)
		VALUES (?, ?, ?, 1, NULL, ?, ?)`,
		batch.ID, batch.CreatedAt, closedAt, string(alerts), string(correlations),
	)
	if err != nil {
		return fmt.Errorf("archive batch %s: %w", batch.ID, err)
	}
	return nil
}

// ListUnmined returns archived batches not yet consumed by the pattern
// miner, oldest first. Rows with undecodable payloads are skipped and
// their ids returned separately so the caller can warn and move on.
func (s *WeaveStore) ListUnmined(ctx context.Context) (batches []models.Batch, skipped []string, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, alerts, correlations
		FROM weave_batches
		WHERE mined_at IS NULL
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, nil, fmt.Errorf("list unmined batches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			b                    models.Batch
			alerts, correlations string
		)
		if err := rows.Scan(&b.ID, &b.CreatedAt, &alerts, &correlations); err != nil {
			return nil, nil, fmt.Errorf("scan batch row: %w", err)
		}
		if json.Unmarshal([]byte(alerts), &b.Alerts) != nil ||
			json.Unmarshal([]byte(correlations), &b.Correlations) != nil {
			skipped = append(skipped, b.ID)
			continue
		}
		b.Processed = true
		batches = append(batches, b)
	}
	return batches, skipped, rows.Err()
}

// MarkMined stamps the batches as consumed by the miner. Mining the same
// batch twice is thereby impossible.
func (s *WeaveStore) MarkMined(ctx context.Context, ids []string, at time.Time) error {
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE weave_batches SET mined_at = ? WHERE id = ?", at, id); err != nil {
			return fmt.Errorf("mark batch %s mined: %w", id, err)
		}
	}
	return nil
}

// ListRecent returns the newest archived batches, newest first.
func (s *WeaveStore) ListRecent(ctx context.Context, limit int) ([]models.Batch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, alerts, correlations
		FROM weave_batches
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent batches: %w", err)
	}
	defer rows.Close()

	var batches []models.Batch
	for rows.Next() {
		var (
			b                    models.Batch
			alerts, correlations string
		)
		if err := rows.Scan(&b.ID, &b.CreatedAt, &alerts, &correlations); err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		if json.Unmarshal([]byte(alerts), &b.Alerts) != nil ||
			json.Unmarshal([]byte(correlations), &b.Correlations) != nil {
			continue
		}
		b.Processed = true
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// DeleteBefore purges archived batches older than the cutoff.
func (s *WeaveStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM weave_batches WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old batches: %w", err)
	}
	return res.RowsAffected()
}
