package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"studyabroad-workers/internal/common/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
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

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// EnsureRecordsTable creates the key/value table backing the record store.
func EnsureRecordsTable(ctx context.Context, db *sql.DB, table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}
