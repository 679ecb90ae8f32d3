// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package store is the persistence layer: rss_movies, rss_tvs,
// rss_torrents, sites, and rss_rule, each as one Go struct plus one
// store type, built on internal/dbinterface.Querier so every store can
// run standalone against *sql.DB or inside a *sql.Tx.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const busyTimeoutMillis = 5000

// DB wraps a single-writer sqlite connection. Sqlite only tolerates one
// writer at a time; rather than run a dedicated write-serialization
// goroutine like a multi-tenant server would, Open limits the pool to
// one open connection, so every statement the stores issue through
// Conn runs one at a time.
type DB struct {
	conn *sql.DB
}

// Open creates (if needed) the database file at path, applies pragmas,
// and runs the idempotent schema migration.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	ctx := context.Background()
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis),
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// NewForTest wraps an already-open *sql.DB (typically ":memory:")
// without touching file-based pragmas, for unit tests.
func NewForTest(conn *sql.DB) (*DB, error) {
	db := &DB{conn: conn}
	if err := db.migrate(context.Background()); err != nil {
		return nil, err
	}
	return db, nil
}

// Conn exposes the underlying connection for stores to bind to.
func (db *DB) Conn() *sql.DB { return db.conn }

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS sites (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	sort_order    INTEGER NOT NULL DEFAULT 0,
	name          TEXT NOT NULL UNIQUE,
	url           TEXT NOT NULL,
	include_rules TEXT NOT NULL DEFAULT '',
	exclude_rules TEXT NOT NULL DEFAULT '',
	size_rule     TEXT NOT NULL DEFAULT '',
	enabled       INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS rss_rule (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	note TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS rss_movies (
	title TEXT NOT NULL,
	year  INTEGER NOT NULL DEFAULT 0,
	state TEXT NOT NULL DEFAULT 'D',
	lack  INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (title, year)
);

CREATE TABLE IF NOT EXISTS rss_tvs (
	title  TEXT NOT NULL,
	year   INTEGER NOT NULL DEFAULT 0,
	season INTEGER NOT NULL,
	state  TEXT NOT NULL DEFAULT 'D',
	lack   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (title, year, season)
);

CREATE TABLE IF NOT EXISTS rss_torrents (
	title_key        TEXT NOT NULL,
	season_episode_key TEXT NOT NULL,
	torrent_id       TEXT NOT NULL DEFAULT '',
	enclosure        TEXT NOT NULL DEFAULT '',
	added_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	transferred      INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (title_key, season_episode_key)
);
`

func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
