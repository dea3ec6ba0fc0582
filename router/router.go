// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/cliparse"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/engine"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/handlers"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/middleware"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/store"
)

func NewRouter(catalog store.ContextCatalog, eng *engine.Engine, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	contextHandler := handlers.NewContextHandler(catalog, eng, cfg)
	votingHandler := handlers.NewVotingHandler(eng, cfg)
	resultsHandler := handlers.NewResultsHandler(eng, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Context management (admin operations)
	mux.HandleFunc("POST /contexts", middleware.WithLogging(contextHandler.CreateContext))
	mux.HandleFunc("GET /contexts/{id}", middleware.WithLogging(contextHandler.GetContext))
	mux.HandleFunc("POST /contexts/{id}/candidates", middleware.WithLogging(contextHandler.AddCandidate))
	mux.HandleFunc("POST /contexts/{id}/matches", middleware.WithLogging(contextHandler.LinkMatch))
	mux.HandleFunc("POST /contexts/{id}/close", middleware.WithLogging(contextHandler.CloseContext))

	// Voting operations (voter token)
	mux.HandleFunc("POST /contexts/{id}/votes", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("GET /contexts/{id}/my-vote", middleware.WithLogging(votingHandler.GetMyVote))

	// Results (public, always live)
	mux.HandleFunc("GET /contexts/{id}/tally", middleware.WithLogging(resultsHandler.GetTally))
	mux.HandleFunc("GET /contexts/{id}/leaderboard", middleware.WithLogging(resultsHandler.GetLeaderboard))
	mux.HandleFunc("GET /contexts/{id}/leaderboard/stream", middleware.WithLogging(resultsHandler.StreamLeaderboard))
	mux.HandleFunc("GET /seasons/{id}/leaderboard", middleware.WithLogging(resultsHandler.GetSeasonLeaderboard))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mvp-vote API v1"))
	})

	return mux
}
