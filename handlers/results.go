// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/cliparse"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/engine"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/leaderboard"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/middleware"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
)

type ResultsHandler struct {
	engine *engine.Engine
	cfg    cliparse.Config
}

func NewResultsHandler(eng *engine.Engine, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{engine: eng, cfg: cfg}
}

// GetTally handles GET /contexts/{id}/tally
// Counts are sparse: candidates nobody voted for are absent.
func (h *ResultsHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	contextID := r.PathValue("id")
	if contextID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "context_id is required")
		return
	}

	t, err := h.engine.Tally(r.Context(), contextID)
	if err != nil {
		writeError(w, "compute tally", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, t)
}

// GetLeaderboard handles GET /contexts/{id}/leaderboard?limit=n
func (h *ResultsHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	contextID := r.PathValue("id")
	if contextID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "context_id is required")
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	board, err := h.engine.Leaderboard(r.Context(), contextID)
	if err != nil {
		writeError(w, "compute leaderboard", err)
		return
	}

	board.Entries = leaderboard.Top(board.Entries, limit)
	middleware.JSONResponse(w, http.StatusOK, board)
}

// GetSeasonLeaderboard handles GET /seasons/{id}/leaderboard?limit=n
// Merges the season's own votes with every linked match.
func (h *ResultsHandler) GetSeasonLeaderboard(w http.ResponseWriter, r *http.Request) {
	seasonID := r.PathValue("id")
	if seasonID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "season_id is required")
		return
	}

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	board, err := h.engine.SeasonLeaderboard(r.Context(), seasonID)
	if err != nil {
		writeError(w, "compute season leaderboard", err)
		return
	}

	slog.Debug("season leaderboard computed",
		"season_id", seasonID,
		"total_votes", humanize.Comma(int64(board.TotalVotes)))

	board.Entries = leaderboard.Top(board.Entries, limit)
	middleware.JSONResponse(w, http.StatusOK, board)
}

// StreamLeaderboard handles GET /contexts/{id}/leaderboard/stream
// Sends a "leaderboard" Server-Sent Event with the full ranking on connect and
// after every change, until the client goes away.
func (h *ResultsHandler) StreamLeaderboard(w http.ResponseWriter, r *http.Request) {
	contextID := r.PathValue("id")
	if contextID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "context_id is required")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	started := false
	var streamErr error
	err := h.engine.Watch(ctx, contextID, func(board models.LeaderboardResponse) {
		if !started {
			if err := middleware.StartEventStream(w); err != nil {
				streamErr = err
				cancel()
				return
			}
			started = true
		}
		if err := middleware.ServerSentEvent(w, "leaderboard", board); err != nil {
			slog.Warn("failed to write leaderboard event", "context_id", contextID, "error", err)
		}
	})

	if streamErr != nil {
		slog.Error("failed to start event stream", "context_id", contextID, "error", streamErr)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	// Errors after the stream started cannot change the status code any more
	if err != nil && !started {
		writeError(w, "watch leaderboard", err)
		return
	}
	if err != nil {
		slog.Warn("leaderboard stream ended", "context_id", contextID, "error", err)
	}
}

// parseLimit reads ?limit=n. Zero or absent means no limit.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
