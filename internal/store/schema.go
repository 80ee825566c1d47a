package store

import (
	"context"
	"fmt"
)

// sqliteSchema is the data schema for the embedded engine. The libSQL
// server speaks the same dialect.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'EMPLOYEE',
	code TEXT NOT NULL DEFAULT '',
	theme TEXT NOT NULL DEFAULT 'light',
	language TEXT NOT NULL DEFAULT 'es',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	type TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT '',
	latitude REAL,
	longitude REAL,
	is_verified INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS offices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	radius REAL NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attendance_user ON attendance(user_id);
CREATE INDEX IF NOT EXISTS idx_attendance_identity ON attendance(user_id, timestamp, type);
CREATE INDEX IF NOT EXISTS idx_attendance_timestamp ON attendance(timestamp);
`

// postgresSchema mirrors sqliteSchema for the networked engine.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'EMPLOYEE',
	code TEXT NOT NULL DEFAULT '',
	theme TEXT NOT NULL DEFAULT 'light',
	language TEXT NOT NULL DEFAULT 'es',
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	type TEXT NOT NULL,
	timestamp TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT '',
	latitude DOUBLE PRECISION,
	longitude DOUBLE PRECISION,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS offices (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	radius DOUBLE PRECISION NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attendance_user ON attendance(user_id);
CREATE INDEX IF NOT EXISTS idx_attendance_identity ON attendance(user_id, timestamp, type);
CREATE INDEX IF NOT EXISTS idx_attendance_timestamp ON attendance(timestamp);
`

const sqliteConfigSchema = `
CREATE TABLE IF NOT EXISTS system_config (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	db_mode TEXT NOT NULL DEFAULT 'local',
	local_db_url TEXT,
	remote_db_url TEXT,
	sync_active INTEGER NOT NULL DEFAULT 0,
	last_sync_at TEXT
);
`

const postgresConfigSchema = `
CREATE TABLE IF NOT EXISTS system_config (
	id BIGSERIAL PRIMARY KEY,
	db_mode TEXT NOT NULL DEFAULT 'local',
	local_db_url TEXT,
	remote_db_url TEXT,
	sync_active BOOLEAN NOT NULL DEFAULT FALSE,
	last_sync_at TEXT
);
`

// InitSchema creates the data tables if they don't exist. Idempotent.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := sqliteSchema
	if s.engine == EnginePostgres {
		schema = postgresSchema
	}
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// InitConfigSchema creates the system_config table. Only the primary
// (configuration) store carries it; data-only endpoints never call this.
func (s *Store) InitConfigSchema(ctx context.Context) error {
	schema := sqliteConfigSchema
	if s.engine == EnginePostgres {
		schema = postgresConfigSchema
	}
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize config schema: %w", err)
	}
	return nil
}
