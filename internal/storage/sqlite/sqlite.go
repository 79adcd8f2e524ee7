// Package sqlite stores everything in one SQLite file through modernc.org/sqlite.
// The pool is capped at one connection, so writers never race each other and
// a verification transaction has the database to itself.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS incidents (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	type            TEXT NOT NULL CHECK (type IN ('roadblock', 'accident')),
	latitude        REAL NOT NULL CHECK (latitude BETWEEN -90 AND 90),
	longitude       REAL NOT NULL CHECK (longitude BETWEEN -180 AND 180),
	media_kind      TEXT NOT NULL,
	media_uri       TEXT NOT NULL,
	notes           TEXT,
	location_name   TEXT,
	reported_at     INTEGER NOT NULL,
	active          INTEGER NOT NULL DEFAULT 1,
	verified_count  INTEGER NOT NULL DEFAULT 0,
	dismissed_count INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_incidents_active ON incidents(active, reported_at);
CREATE INDEX IF NOT EXISTS idx_incidents_user ON incidents(user_id, reported_at);

CREATE TABLE IF NOT EXISTS verifications (
	id          TEXT PRIMARY KEY,
	incident_id TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	action      TEXT NOT NULL CHECK (action IN ('confirm', 'dismiss')),
	created_at  INTEGER NOT NULL,
	UNIQUE (user_id, incident_id),
	FOREIGN KEY (incident_id) REFERENCES incidents(id)
);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id              TEXT PRIMARY KEY,
	siren_enabled        INTEGER NOT NULL,
	vibration_enabled    INTEGER NOT NULL,
	popup_alerts_enabled INTEGER NOT NULL,
	alert_distance_m     INTEGER NOT NULL CHECK (alert_distance_m > 0)
);

CREATE TABLE IF NOT EXISTS location_checks (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	lat          REAL NOT NULL,
	lng          REAL NOT NULL,
	incident_ids TEXT NOT NULL DEFAULT '[]',
	checked_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_location_checks_checked_at ON location_checks(checked_at);
`

type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func Open(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := NewWithDB(db, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	logger.Info("Opened SQLite database", slog.String("path", path))
	return s, nil
}

// NewWithDB wraps an existing handle without migrating it.
func NewWithDB(db *sql.DB, logger *slog.Logger) *SQLite {
	return &SQLite{db: db, logger: logger, now: time.Now}
}

func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
