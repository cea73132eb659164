package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Activity, balances and amounts are NUMERIC(20,0): BIGINT cannot hold the
// full uint64 range.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		id       BIGINT PRIMARY KEY,
		owner    TEXT NOT NULL UNIQUE,
		stage    SMALLINT NOT NULL CHECK (stage BETWEEN 1 AND 3),
		activity NUMERIC(20,0) NOT NULL DEFAULT 0 CHECK (activity >= 0 AND activity <= 18446744073709551615)
	)`,
	`CREATE TABLE IF NOT EXISTS rare_balances (
		owner   TEXT PRIMARY KEY,
		balance NUMERIC(20,0) NOT NULL CHECK (balance >= 0 AND balance <= 18446744073709551615)
	)`,
	`CREATE TABLE IF NOT EXISTS journal (
		sequence BIGINT PRIMARY KEY,
		kind     TEXT NOT NULL,
		caller   TEXT NOT NULL,
		amount   NUMERIC(20,0) NOT NULL DEFAULT 0,
		asset_id BIGINT NOT NULL DEFAULT 0,
		stage    SMALLINT NOT NULL DEFAULT 0,
		balance  NUMERIC(20,0) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS audit_outbox (
		id           UUID PRIMARY KEY,
		category     TEXT NOT NULL,
		action       TEXT NOT NULL,
		subject      TEXT NOT NULL,
		asset_id     BIGINT NOT NULL DEFAULT 0,
		stage        SMALLINT NOT NULL DEFAULT 0,
		amount       NUMERIC(20,0) NOT NULL DEFAULT 0,
		balance      NUMERIC(20,0) NOT NULL DEFAULT 0,
		sequence     BIGINT NOT NULL DEFAULT 0,
		reason       TEXT NOT NULL DEFAULT '',
		request_id   TEXT NOT NULL DEFAULT '',
		occurred_at  TIMESTAMPTZ NOT NULL,
		published_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_outbox_pending ON audit_outbox (occurred_at, sequence) WHERE published_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_audit_outbox_subject ON audit_outbox (subject)`,
}

// Tables lists every table the schema owns, in dependency order.
var Tables = []string{"assets", "rare_balances", "journal", "audit_outbox"}

// Migrate applies the schema in one transaction. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range migrations {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}
