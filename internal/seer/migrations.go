package seer

import (
	"database/sql"

	"github.com/HerbHall/presage/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create seer pattern registry",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`CREATE TABLE IF NOT EXISTS seer_patterns (
					id TEXT PRIMARY KEY,
					alert_types TEXT NOT NULL,
					time_window_ms INTEGER NOT NULL,
					severity TEXT NOT NULL,
					frequency REAL NOT NULL,
					occurrences INTEGER NOT NULL,
					first_seen DATETIME NOT NULL,
					last_seen DATETIME NOT NULL,
					next_expected DATETIME,
					confidence REAL
				)`)
				return err
			},
		},
	}
}
