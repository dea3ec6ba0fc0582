// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite file or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - AdminKeySalt: Secret for admin key HMAC (required)
  - VoterTokenSalt: Secret shared with the portal for voter tokens (required)
  - MaxSubscriptions: Live leaderboard subscription cap (default: 1024)

# CLI Flags

	-p                  Server port
	-d                  Database URL
	-t                  Database type
	--admin-salt        Admin key salt
	--voter-salt        Voter token salt
	--max-subscriptions Subscription cap
	--env-file          Dotenv file (default: .env)

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p
	DATABASE_URL      → -d
	DATABASE_TYPE     → -t
	ADMIN_KEY_SALT    → --admin-salt
	VOTER_TOKEN_SALT  → --voter-salt
	MAX_SUBSCRIPTIONS → --max-subscriptions

CLI flags take precedence over environment variables. The dotenv file is
loaded first and never overrides variables that are already set; a missing
file is ignored.
*/
package cliparse
