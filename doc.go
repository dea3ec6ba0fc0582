// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the MVP voting API server.

Fans vote for the most valuable player or team of a match or a season. Each
voter holds at most one vote per context; clicking again retracts it,
clicking another candidate switches it. Leaderboards are recomputed from the
stored votes on every read.

# Starting the Server

The server reads CLI flags, environment variables and an optional .env file:

	DATABASE_URL=file:votes.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - VOTER_TOKEN_SALT (--voter-salt): Secret for voter token HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - MAX_SUBSCRIPTIONS (--max-subscriptions): Live leaderboard stream limit (default: 1024)

On PostgreSQL, vote changes are broadcast with NOTIFY so every instance can
push live leaderboards.

# Architecture

  - ledger: One-vote-per-voter toggle (cast, switch, retract)
  - tally: Vote counting and season merging
  - leaderboard: Ranking and percentages
  - engine: CastVote, Tally, Leaderboard and Watch over a store
  - store: Vote and context storage (SQL and in-memory)
  - notify: Change notifications (in-process broker, PostgreSQL LISTEN)
  - handlers: HTTP request handlers (contexts, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON and SSE helpers
  - models: Domain, request and response types
  - auth: Admin keys and voter tokens
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
