package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/kalshi-watch/internal/config"
)

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the event tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS signal_events (
	id                 UUID PRIMARY KEY,
	kind               TEXT        NOT NULL,
	side               TEXT        NOT NULL,
	contract           TEXT        NOT NULL,
	at                 TIMESTAMPTZ NOT NULL,
	session_elapsed_ms BIGINT      NOT NULL,
	price              INTEGER,
	dwell_ms           BIGINT,
	cycle              INTEGER,
	pnl                DOUBLE PRECISION,
	depth              TEXT,
	momentum_1m        DOUBLE PRECISION,
	momentum_5m        DOUBLE PRECISION,
	rvol_5m            DOUBLE PRECISION,
	rvol_15m           DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS signal_events_contract_idx ON signal_events (contract, at);

CREATE TABLE IF NOT EXISTS contract_summaries (
	contract     TEXT        NOT NULL,
	side         TEXT        NOT NULL,
	start_at     TIMESTAMPTZ NOT NULL,
	expiry_at    TIMESTAMPTZ NOT NULL,
	ended_at     TIMESTAMPTZ NOT NULL,
	cycles       INTEGER     NOT NULL,
	stops        INTEGER     NOT NULL,
	open_trigger BOOLEAN     NOT NULL,
	PRIMARY KEY (contract, side)
);
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
