// Package migrations applies the campaign layer's database schema. The
// statements are idempotent so Apply can run on every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS campaign_snapshots (
		address              TEXT PRIMARY KEY,
		name                 TEXT NOT NULL DEFAULT '',
		creator_wallet       TEXT NOT NULL,
		status               TEXT NOT NULL,
		goal                 BIGINT NOT NULL DEFAULT 0,
		total_pledges        BIGINT NOT NULL DEFAULT 0,
		refunded_pledges     BIGINT NOT NULL DEFAULT 0,
		total_deposited      BIGINT NOT NULL DEFAULT 0,
		currently_deposited  BIGINT NOT NULL DEFAULT 0,
		last_synced_at       TIMESTAMPTZ NOT NULL,
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS campaign_receipts (
		id                TEXT PRIMARY KEY,
		campaign_address  TEXT NOT NULL,
		kind              TEXT NOT NULL,
		token_address     TEXT NOT NULL DEFAULT '',
		wallet            TEXT NOT NULL DEFAULT '',
		amount            BIGINT NOT NULL DEFAULT 0,
		order_number      INTEGER NOT NULL DEFAULT 0,
		signature         TEXT NOT NULL DEFAULT '',
		created_at        TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS campaign_receipts_campaign_idx
		ON campaign_receipts (campaign_address, created_at)`,
}

// Apply executes every schema statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
