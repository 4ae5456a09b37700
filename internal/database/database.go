package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps the pgx connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// New connects to Postgres, verifies the connection, and ensures the schema
func New(ctx context.Context, pgURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, pgURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// migrate applies the idempotent schema bootstrap
func (db *DB) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS plan (
			id BIGSERIAL PRIMARY KEY,
			plan_type TEXT NOT NULL,
			name TEXT NOT NULL,
			risk_score BIGINT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created TIMESTAMPTZ NOT NULL,
			updated TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS plan_target (
			plan_id BIGINT NOT NULL REFERENCES plan(id),
			position INT NOT NULL,
			asset_class TEXT NOT NULL,
			token TEXT NOT NULL,
			target_bps BIGINT NOT NULL,
			min_bps BIGINT NOT NULL,
			max_bps BIGINT NOT NULL,
			PRIMARY KEY (plan_id, position)
		);

		CREATE TABLE IF NOT EXISTS ledger_account (
			owner_id BIGINT PRIMARY KEY,
			total_deposited NUMERIC(32,18) NOT NULL DEFAULT 0,
			available NUMERIC(32,18) NOT NULL DEFAULT 0,
			pending NUMERIC(32,18) NOT NULL DEFAULT 0,
			invested NUMERIC(32,18) NOT NULL DEFAULT 0,
			created TIMESTAMPTZ NOT NULL,
			updated TIMESTAMPTZ NOT NULL,
			CHECK (total_deposited = available + pending + invested)
		);

		CREATE TABLE IF NOT EXISTS deposit_record (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			amount NUMERIC(32,18) NOT NULL,
			deposit_type TEXT NOT NULL,
			created TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_deposit_owner ON deposit_record(owner_id);

		CREATE TABLE IF NOT EXISTS investment (
			id BIGSERIAL PRIMARY KEY,
			owner_id BIGINT NOT NULL,
			plan_id BIGINT NOT NULL REFERENCES plan(id),
			total_amount NUMERIC(32,18) NOT NULL,
			status TEXT NOT NULL,
			executed_amount NUMERIC(32,18) NOT NULL DEFAULT 0,
			created TIMESTAMPTZ NOT NULL,
			executed_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_investment_owner ON investment(owner_id);

		CREATE TABLE IF NOT EXISTS holding (
			owner_id BIGINT NOT NULL,
			token TEXT NOT NULL,
			amount NUMERIC(32,18) NOT NULL DEFAULT 0,
			PRIMARY KEY (owner_id, token)
		);
	`
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
