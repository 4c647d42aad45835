package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mintslip-workers/internal/common/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	dsn := cfg.GetDSN()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// schema is applied in order on startup; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS coupons (
		code             TEXT PRIMARY KEY,
		discount_percent NUMERIC(5,2) NOT NULL CHECK (discount_percent >= 0 AND discount_percent < 100),
		active           BOOLEAN NOT NULL DEFAULT TRUE,
		expires_at       TIMESTAMPTZ
	)`,
	// tables created before full-order coupons were refused keep the old bound
	`ALTER TABLE coupons DROP CONSTRAINT IF EXISTS coupons_discount_percent_check`,
	`ALTER TABLE coupons ADD CONSTRAINT coupons_discount_percent_check
		CHECK (discount_percent >= 0 AND discount_percent < 100) NOT VALID`,
	`CREATE TABLE IF NOT EXISTS payments (
		reference       TEXT PRIMARY KEY,
		provider        TEXT NOT NULL,
		idempotency_key TEXT NOT NULL,
		user_id         TEXT NOT NULL,
		amount          NUMERIC(10,2) NOT NULL,
		currency        TEXT NOT NULL,
		status          TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS payments_idempotency_key_idx ON payments (provider, idempotency_key)`,
	`CREATE TABLE IF NOT EXISTS generated_documents (
		id            UUID PRIMARY KEY,
		user_id       TEXT NOT NULL,
		document_type TEXT NOT NULL,
		template_id   TEXT NOT NULL,
		file_name     TEXT NOT NULL,
		content_type  TEXT NOT NULL,
		size_bytes    BIGINT NOT NULL,
		payment_ref   TEXT,
		content       BYTEA NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS generated_documents_user_idx ON generated_documents (user_id, created_at DESC)`,
}

// Migrate creates the tables the service owns.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
