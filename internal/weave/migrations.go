package weave

import (
	"database/sql"

	"github.com/HerbHall/presage/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create weave batch archive",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS weave_batches (
						id TEXT PRIMARY KEY,
						created_at DATETIME NOT NULL,
						closed_at DATETIME NOT NULL,
						processed INTEGER NOT NULL DEFAULT 0,
						mined_at DATETIME,
						alerts TEXT NOT NULL,
						correlations TEXT NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_weave_batches_mined ON weave_batches(mined_at)`,
					`CREATE INDEX IF NOT EXISTS idx_weave_batches_created ON weave_batches(created_at)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
