package registry

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the doors table if it does not exist. Called at boot;
// real deployments can manage the schema externally instead.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS doors (
			id            UUID PRIMARY KEY,
			name          TEXT NOT NULL,
			location      TEXT NOT NULL DEFAULT '',
			locked        BOOLEAN NOT NULL DEFAULT TRUE,
			battery_level INT NOT NULL DEFAULT 100 CHECK (battery_level BETWEEN 0 AND 100),
			last_update   TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure doors schema: %w", err)
	}
	return nil
}
