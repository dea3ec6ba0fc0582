// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates its schema.

# Drivers

Open picks the driver from the configured database type:

	conn, dialect, err := db.Open("sqlite", "file:mvp.db")
	conn, dialect, err := db.Open("postgres", "postgres://...")

SQLite uses modernc.org/sqlite (pure Go, no cgo). PostgreSQL uses lib/pq.

# Schema

CreateSchema creates the tables if they don't exist:

	err := db.CreateSchema(conn)

Tables:

  - vote_context: matches and seasons, with open/closed state
  - candidate: teams or players votable in a context
  - season_match: which matches feed a season leaderboard
  - vote_record: one row per (context_id, voter_id)

The vote_record primary key is what enforces a single active vote per
voter and context at the storage level. vote_record.context_id has no
ON DELETE CASCADE, so a context cannot be deleted while votes reference it.
*/
package db
