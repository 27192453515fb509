package tally

import (
	"database/sql"

	"github.com/HerbHall/presage/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create tally accuracy records",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS tally_records (
					id TEXT PRIMARY KEY,
					pattern_id TEXT NOT NULL,
					predicted_time DATETIME NOT NULL,
					actual_time DATETIME,
					confidence REAL NOT NULL,
					accuracy REAL,
					verified INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`)
				if err != nil {
					return err
				}
				_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_tally_records_pattern
					ON tally_records(pattern_id)`)
				return err
			},
		},
		{
			Version:     2,
			Description: "carry pattern alert types on accuracy records",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`ALTER TABLE tally_records
					ADD COLUMN alert_types TEXT NOT NULL DEFAULT '[]'`)
				return err
			},
		},
	}
}
