// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the MVP voting API.

# Handler Types

Each handler is a struct holding the engine (and, for admin operations, the
context catalog) plus config:

  - ContextHandler: Context lifecycle (create, candidates, close, season links)
  - VotingHandler: Vote toggling and current-vote reconciliation
  - ResultsHandler: Tally, leaderboards and the live leaderboard stream

	contextHandler := handlers.NewContextHandler(catalog, eng, cfg)

# Context Lifecycle

	POST /contexts                   → CreateContext (returns admin_key)
	POST /contexts/{id}/candidates   → AddCandidate (open contexts only)
	POST /contexts/{id}/matches      → LinkMatch (season admin)
	POST /contexts/{id}/close        → CloseContext (returns final leaderboard)

Admin operations require the X-Admin-Key header.

# Voting Flow

	POST /contexts/{id}/votes    → CastVote (cast, switch or retract)
	GET  /contexts/{id}/my-vote  → GetMyVote

Voter operations require the X-Voter-Token header, a signed voter ID issued
by the account service with auth.IssueVoterToken. A rejected candidate comes
back as 400 with message "refresh": the client's candidate list is stale.

# Results

	GET /contexts/{id}/tally               → GetTally
	GET /contexts/{id}/leaderboard         → GetLeaderboard (?limit=n)
	GET /seasons/{id}/leaderboard          → GetSeasonLeaderboard
	GET /contexts/{id}/leaderboard/stream  → StreamLeaderboard (Server-Sent Events)

Every read recomputes from the stored votes.
*/
package handlers
