// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/store"
)

// Open connects to the database selected by dbType ("sqlite" or "postgres").
// SQLite connections get an immediate transaction lock and a busy timeout so
// concurrent voters queue instead of failing with SQLITE_BUSY.
func Open(dbType, url string) (*sql.DB, store.Dialect, error) {
	switch store.Dialect(dbType) {
	case store.Postgres:
		conn, err := sql.Open("postgres", url)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open postgres: %w", err)
		}
		return conn, store.Postgres, nil

	case store.SQLite:
		conn, err := sql.Open("sqlite", sqliteDSN(url))
		if err != nil {
			return nil, "", fmt.Errorf("failed to open sqlite: %w", err)
		}
		return conn, store.SQLite, nil
	}

	return nil, "", fmt.Errorf("unsupported database type %q", dbType)
}

func sqliteDSN(url string) string {
	var params []string
	if !strings.Contains(url, "_txlock=") {
		params = append(params, "_txlock=immediate")
	}
	if !strings.Contains(url, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if len(params) == 0 {
		return url
	}

	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + strings.Join(params, "&")
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Vote contexts (matches and seasons)
CREATE TABLE IF NOT EXISTS vote_context (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL CHECK (kind IN ('match', 'season')),
    title TEXT NOT NULL,
    is_open BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL,
    closed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vote_context_kind ON vote_context(kind);

-- Candidates (teams or players). A player keeps one ID across the season
-- and its matches, so IDs are unique per context only.
CREATE TABLE IF NOT EXISTS candidate (
    context_id TEXT NOT NULL REFERENCES vote_context(id) ON DELETE CASCADE,
    id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    metadata TEXT,
    PRIMARY KEY (context_id, id)
);

-- Season membership
CREATE TABLE IF NOT EXISTS season_match (
    season_id TEXT NOT NULL REFERENCES vote_context(id) ON DELETE CASCADE,
    match_id TEXT NOT NULL REFERENCES vote_context(id) ON DELETE CASCADE,
    PRIMARY KEY (season_id, match_id)
);

-- Vote records: one per (context, voter)
CREATE TABLE IF NOT EXISTS vote_record (
    context_id TEXT NOT NULL REFERENCES vote_context(id),
    voter_id TEXT NOT NULL,
    candidate_id TEXT NOT NULL,
    cast_at TIMESTAMP NOT NULL,
    PRIMARY KEY (context_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_record_context_id ON vote_record(context_id);
`
