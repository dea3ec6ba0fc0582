// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/auth"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/cliparse"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/engine"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/middleware"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
)

type VotingHandler struct {
	engine *engine.Engine
	cfg    cliparse.Config
}

func NewVotingHandler(eng *engine.Engine, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{engine: eng, cfg: cfg}
}

// voterID resolves X-Voter-Token. A missing token yields "" so the ledger
// reports it as unauthenticated; a forged one is rejected here.
func (h *VotingHandler) voterID(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.Header.Get("X-Voter-Token")
	if token == "" {
		return "", true
	}

	voterID, err := auth.VoterFromToken(token, h.cfg.VoterTokenSalt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token")
		return "", false
	}
	return voterID, true
}

// CastVote handles POST /contexts/{id}/votes
// Clicking the current candidate again retracts the vote, clicking another switches it.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	contextID := r.PathValue("id")
	if contextID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "context_id is required")
		return
	}

	voterID, ok := h.voterID(w, r)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	outcome, err := h.engine.CastVote(r.Context(), contextID, voterID, req.CandidateID)
	if err != nil {
		writeError(w, "cast vote", err)
		return
	}

	var message string
	switch outcome.Status {
	case models.StatusCast:
		message = "Vote cast"
	case models.StatusSwitched:
		message = "Vote switched"
	case models.StatusRetracted:
		message = "Vote retracted"
	}

	slog.Info("vote recorded", "context_id", contextID, "status", outcome.Status)

	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		Outcome: outcome,
		Message: message,
	})
}

// GetMyVote handles GET /contexts/{id}/my-vote
// Clients call it to reconcile button state after a reload or a failed request.
func (h *VotingHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	contextID := r.PathValue("id")
	if contextID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "context_id is required")
		return
	}

	voterID, ok := h.voterID(w, r)
	if !ok {
		return
	}

	rec, err := h.engine.CurrentVote(r.Context(), contextID, voterID)
	if err != nil {
		writeError(w, "get vote", err)
		return
	}

	if rec == nil {
		middleware.JSONResponse(w, http.StatusOK, models.MyVoteResponse{HasVoted: false})
		return
	}

	castAt := rec.CastAt
	middleware.JSONResponse(w, http.StatusOK, models.MyVoteResponse{
		HasVoted:    true,
		CandidateID: rec.CandidateID,
		CastAt:      &castAt,
		CastAgo:     humanize.Time(castAt),
	})
}
