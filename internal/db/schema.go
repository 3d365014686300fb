package db

import (
	"context"
	"fmt"
	"strings"
)

// Migrate applies the idempotent schema for the handle's driver. If the driver
// rejects a multi-statement script it falls back to one statement at a time.
func Migrate(ctx context.Context, d *DB) error {
	if d == nil || d.SQL == nil {
		return fmt.Errorf("migrations: db is nil")
	}
	schema := schemaSQLite
	if d.Driver.IsPostgres() {
		schema = schemaPostgres
	}
	if _, err := d.SQL.ExecContext(ctx, schema); err != nil {
		for _, stmt := range splitSQL(schema) {
			if _, e := d.SQL.ExecContext(ctx, stmt); e != nil {
				return fmt.Errorf("migrations: failed at:\n%s\nerr: %w", firstLine(stmt), e)
			}
		}
	}
	return nil
}

// splitSQL naively splits on ';'. Good enough for plain DDL.
func splitSQL(s string) []string {
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p+";")
		}
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS parts (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  part_id TEXT NOT NULL REFERENCES parts(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  question TEXT NOT NULL DEFAULT '',
  alternatives_json TEXT NOT NULL DEFAULT '[]',
  correct_alternative TEXT NOT NULL,
  sequence_number INTEGER NOT NULL CHECK (sequence_number >= 1),
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  UNIQUE (part_id, title),
  UNIQUE (part_id, sequence_number)
);

CREATE TABLE IF NOT EXISTS test_attempts (
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  test_number INTEGER NOT NULL CHECK (test_number >= 1),
  test_result TEXT NOT NULL CHECK (test_result IN ('CORRECT','WRONG')),
  created_at INTEGER NOT NULL,
  PRIMARY KEY (user_id, test_id, test_number)
);

CREATE TABLE IF NOT EXISTS point_requests (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  points_origin TEXT NOT NULL DEFAULT 'MANUAL',
  request_status TEXT NOT NULL DEFAULT 'NEW',
  points_to_add INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS point_request_dispatch (
  point_request_id INTEGER PRIMARY KEY REFERENCES point_requests(id) ON DELETE CASCADE,
  status TEXT NOT NULL CHECK (status IN ('pending','ok','failed')),
  retries INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  updated_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS parts (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  part_id TEXT NOT NULL REFERENCES parts(id) ON DELETE CASCADE,
  title TEXT NOT NULL,
  question TEXT NOT NULL DEFAULT '',
  alternatives_json TEXT NOT NULL DEFAULT '[]',
  correct_alternative TEXT NOT NULL,
  sequence_number INTEGER NOT NULL CHECK (sequence_number >= 1),
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  UNIQUE (part_id, title),
  UNIQUE (part_id, sequence_number)
);

CREATE TABLE IF NOT EXISTS test_attempts (
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  test_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  test_number INTEGER NOT NULL CHECK (test_number >= 1),
  test_result TEXT NOT NULL CHECK (test_result IN ('CORRECT','WRONG')),
  created_at BIGINT NOT NULL,
  PRIMARY KEY (user_id, test_id, test_number)
);

CREATE TABLE IF NOT EXISTS point_requests (
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  points_origin TEXT NOT NULL DEFAULT 'MANUAL',
  request_status TEXT NOT NULL DEFAULT 'NEW',
  points_to_add INTEGER NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS point_request_dispatch (
  point_request_id BIGINT PRIMARY KEY REFERENCES point_requests(id) ON DELETE CASCADE,
  status TEXT NOT NULL CHECK (status IN ('pending','ok','failed')),
  retries INT NOT NULL DEFAULT 0,
  last_error TEXT,
  updated_at BIGINT NOT NULL
);
`
