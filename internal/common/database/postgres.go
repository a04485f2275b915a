// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"incubator-portal/internal/common/config"

	_ "github.com/lib/pq"
)

// ApplicationsSchema creates the applications table. The unique index on
// application_id is the uniqueness backstop for concurrent issuance.
const ApplicationsSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id                UUID PRIMARY KEY,
	application_id    TEXT NOT NULL,
	application_email TEXT NOT NULL,
	application_phone TEXT NOT NULL,
	program_applied   TEXT NOT NULL,
	startup_name      TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'Pending'
		CHECK (status IN ('Pending', 'Under Review', 'Accepted', 'Rejected')),
	submission_date   TIMESTAMPTZ NOT NULL,
	updated_date_time TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS applications_application_id_key ON applications (application_id);
CREATE INDEX IF NOT EXISTS applications_submission_date_idx ON applications (submission_date DESC);
`

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres creates a new PostgreSQL client
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

// Ping tests the database connection
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// EnsureSchema applies ApplicationsSchema. It is idempotent.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, ApplicationsSchema); err != nil {
		return fmt.Errorf("failed to apply applications schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
