// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the MVP voting API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(catalog, eng, cfg)

# Endpoints

Health:

	GET /health

Context management (admin, requires X-Admin-Key):

	POST /contexts                 - Create match or season
	POST /contexts/{id}/candidates - Add candidate
	POST /contexts/{id}/matches    - Link a match to a season
	POST /contexts/{id}/close      - Stop voting, return final leaderboard

Voting (requires X-Voter-Token):

	POST /contexts/{id}/votes   - Cast, switch or retract
	GET  /contexts/{id}/my-vote - Current vote

Results (public):

	GET /contexts/{id}                    - Context and candidates
	GET /contexts/{id}/tally              - Sparse vote counts
	GET /contexts/{id}/leaderboard        - Ranked candidates
	GET /contexts/{id}/leaderboard/stream - Live leaderboard (SSE)
	GET /seasons/{id}/leaderboard         - Season merged with its matches
*/
package router
