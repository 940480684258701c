package database

import (
	"context"
	"fmt"

	"github.com/cove/agent-demo/internal/config"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS demo_sessions (
	id              UUID PRIMARY KEY,
	email           TEXT NOT NULL,
	company_url     TEXT NOT NULL,
	company_name    TEXT NOT NULL,
	agent_type      TEXT NOT NULL CHECK (agent_type IN ('recovery', 'support', 'claims')),
	scraped_content TEXT NOT NULL DEFAULT '',
	message_count   INTEGER NOT NULL DEFAULT 0,
	booking_shown   BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS demo_messages (
	id         UUID PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES demo_sessions(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_demo_messages_session_created
	ON demo_messages (session_id, created_at, seq);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS demo_sessions (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL,
	company_url     TEXT NOT NULL,
	company_name    TEXT NOT NULL,
	agent_type      TEXT NOT NULL CHECK (agent_type IN ('recovery', 'support', 'claims')),
	scraped_content TEXT NOT NULL DEFAULT '',
	message_count   INTEGER NOT NULL DEFAULT 0,
	booking_shown   BOOLEAN NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS demo_messages (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES demo_sessions(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	role       TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_demo_messages_session_created
	ON demo_messages (session_id, created_at, seq);
`

// Migrate creates the demo tables when they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	var schema string
	switch db.DriverName() {
	case config.DriverPostgres:
		schema = postgresSchema
	case config.DriverSQLite:
		schema = sqliteSchema
	default:
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
