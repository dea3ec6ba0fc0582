// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - VoteContext: a match or season that collects votes
  - Candidate: a votable team or player within a context
  - VoteRecord: one voter's current vote in one context
  - VoteOutcome: result of a cast (cast, switched, retracted)
  - Tally: derived per-candidate counts for a context
  - LeaderboardEntry: ranked, percentage-annotated row

# Request Types

  - CreateContextRequest: kind, title
  - AddCandidateRequest: display_name, metadata
  - LinkMatchRequest: match_id
  - CastVoteRequest: candidate_id

# Response Types

  - CreateContextResponse: context_id, admin_key
  - AddCandidateResponse: candidate_id
  - ContextWithCandidates: context, candidates
  - CastVoteResponse: outcome, message
  - MyVoteResponse: has_voted, candidate_id, cast_at, cast_ago
  - LeaderboardResponse: context_id, total_votes, entries
  - CloseContextResponse: closed_at, leaderboard
  - ErrorResponse: error, message

# Constants

Context kinds:

	KindMatch  = "match"
	KindSeason = "season"

Outcome statuses:

	StatusCast      = "cast"
	StatusSwitched  = "switched"
	StatusRetracted = "retracted"
*/
package models
