package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates a pgxpool and verifies connectivity. statementTimeout is a
// Postgres interval such as "5s"; empty keeps the server default.
func NewPool(ctx context.Context, dsn, statementTimeout string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if statementTimeout != "" {
		cfg.ConnConfig.RuntimeParams["statement_timeout"] = statementTimeout
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = "billcheck"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
