package db

import (
	"database/sql"
	"fmt"
)

// sqliteSchema is the full SQLite schema. seq orders rows by insertion.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS foods (
    seq             INTEGER PRIMARY KEY,
    id              TEXT NOT NULL UNIQUE,
    name            TEXT NOT NULL,
    image_url       TEXT NOT NULL DEFAULT '',
    image           BLOB,
    image_mime      TEXT NOT NULL DEFAULT '',
    quantity        TEXT NOT NULL,
    category        TEXT NOT NULL DEFAULT '',
    pickup_location TEXT NOT NULL,
    expire_date     TEXT NOT NULL,
    notes           TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'Available' CHECK (status IN ('Available', 'Donated')),
    donor_name      TEXT NOT NULL,
    donor_email     TEXT NOT NULL,
    donor_image     TEXT NOT NULL DEFAULT '',
    created_at      DATETIME NOT NULL,
    updated_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS requests (
    seq             INTEGER PRIMARY KEY,
    id              TEXT NOT NULL UNIQUE,
    food_id         TEXT NOT NULL,
    requester_name  TEXT NOT NULL,
    requester_email TEXT NOT NULL,
    requester_image TEXT NOT NULL DEFAULT '',
    location        TEXT NOT NULL,
    reason          TEXT NOT NULL,
    contact         TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
    donor_email     TEXT NOT NULL,
    created_at      DATETIME NOT NULL,
    decided_at      DATETIME
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// postgresSchema mirrors sqliteSchema.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS foods (
    seq             BIGSERIAL PRIMARY KEY,
    id              TEXT NOT NULL UNIQUE,
    name            TEXT NOT NULL,
    image_url       TEXT NOT NULL DEFAULT '',
    image           BYTEA,
    image_mime      TEXT NOT NULL DEFAULT '',
    quantity        TEXT NOT NULL,
    category        TEXT NOT NULL DEFAULT '',
    pickup_location TEXT NOT NULL,
    expire_date     TEXT NOT NULL,
    notes           TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'Available' CHECK (status IN ('Available', 'Donated')),
    donor_name      TEXT NOT NULL,
    donor_email     TEXT NOT NULL,
    donor_image     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL,
    updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS requests (
    seq             BIGSERIAL PRIMARY KEY,
    id              TEXT NOT NULL UNIQUE,
    food_id         TEXT NOT NULL,
    requester_name  TEXT NOT NULL,
    requester_email TEXT NOT NULL,
    requester_image TEXT NOT NULL DEFAULT '',
    location        TEXT NOT NULL,
    reason          TEXT NOT NULL,
    contact         TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
    donor_email     TEXT NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL,
    decided_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TIMESTAMPTZ NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent and valid in both dialects. Append new
// migrations at the end.
var migrations = []string{
	// Migration 1: lookups by donor ("my foods", donor inbox).
	`CREATE INDEX IF NOT EXISTS idx_foods_donor_email ON foods (LOWER(donor_email))`,
	`CREATE INDEX IF NOT EXISTS idx_requests_donor_email ON requests (LOWER(donor_email))`,
	// Migration 2: listByFood in insertion order.
	`CREATE INDEX IF NOT EXISTS idx_requests_food ON requests (food_id, seq)`,
}

func schemaFor(d Dialect) string {
	if d == Postgres {
		return postgresSchema
	}
	return sqliteSchema
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB, d Dialect) error {
	if _, err := db.Exec(schemaFor(d)); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Migrate creates the schema and runs the migrations.
func Migrate(db *sql.DB, d Dialect) error {
	if err := EnsureSchema(db, d); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
