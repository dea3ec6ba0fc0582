// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/auth"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/cliparse"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/engine"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/middleware"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/store"
)

type ContextHandler struct {
	catalog store.ContextCatalog
	engine  *engine.Engine
	cfg     cliparse.Config
}

func NewContextHandler(catalog store.ContextCatalog, eng *engine.Engine, cfg cliparse.Config) *ContextHandler {
	return &ContextHandler{catalog: catalog, engine: eng, cfg: cfg}
}

// CreateContext handles POST /contexts
func (h *ContextHandler) CreateContext(w http.ResponseWriter, r *http.Request) {
	var req models.CreateContextRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if strings.TrimSpace(req.Title) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Kind == "" {
		req.Kind = models.KindMatch
	}
	if !req.Kind.Valid() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "kind must be 'match' or 'season'")
		return
	}

	contextID := uuid.NewString()
	err := h.catalog.CreateContext(r.Context(), models.VoteContext{
		ID:        contextID,
		Kind:      req.Kind,
		Title:     req.Title,
		IsOpen:    true,
		CreatedAt: time.Now(),
	})
	if err != nil {
		writeError(w, "create context", err)
		return
	}

	slog.Info("context created", "context_id", contextID, "kind", req.Kind)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateContextResponse{
		ContextID: contextID,
		AdminKey:  auth.GenerateAdminKey(contextID, h.cfg.AdminKeySalt),
	})
}

// GetContext handles GET /contexts/{id}
// Returns the context and its candidate list, which clients use to render vote buttons
func (h *ContextHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	contextID := r.PathValue("id")
	if contextID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "context_id is required")
		return
	}

	vc, err := h.catalog.GetContext(r.Context(), contextID)
	if err != nil {
		writeError(w, "get context", err)
		return
	}

	candidates, err := h.catalog.ListCandidates(r.Context(), contextID)
	if err != nil {
		writeError(w, "list candidates", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ContextWithCandidates{
		Context:    *vc,
		Candidates: candidates,
	})
}

// AddCandidate handles POST /contexts/{id}/candidates
func (h *ContextHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	contextID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "display_name is required")
		return
	}

	vc, err := h.catalog.GetContext(r.Context(), contextID)
	if err != nil {
		writeError(w, "get context", err)
		return
	}
	if !vc.IsOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot add candidates to a closed context")
		return
	}

	candidateID := uuid.NewString()
	err = h.catalog.AddCandidate(r.Context(), models.Candidate{
		ID:          candidateID,
		ContextID:   contextID,
		DisplayName: req.DisplayName,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, "add candidate", err)
		return
	}

	slog.Info("candidate added", "context_id", contextID, "candidate_id", candidateID)

	middleware.JSONResponse(w, http.StatusCreated, models.AddCandidateResponse{
		CandidateID: candidateID,
	})
}

// CloseContext handles POST /contexts/{id}/close
// Stops accepting votes and returns the final leaderboard
func (h *ContextHandler) CloseContext(w http.ResponseWriter, r *http.Request) {
	contextID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	vc, err := h.catalog.GetContext(r.Context(), contextID)
	if err != nil {
		writeError(w, "get context", err)
		return
	}
	if !vc.IsOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Context is already closed")
		return
	}

	closedAt := time.Now().UTC()
	if err := h.catalog.CloseContext(r.Context(), contextID, closedAt); err != nil {
		writeError(w, "close context", err)
		return
	}

	board, err := h.engine.Leaderboard(r.Context(), contextID)
	if err != nil {
		writeError(w, "compute final leaderboard", err)
		return
	}

	slog.Info("context closed",
		"context_id", contextID,
		"total_votes", humanize.Comma(int64(board.TotalVotes)))

	middleware.JSONResponse(w, http.StatusOK, models.CloseContextResponse{
		ClosedAt:    closedAt,
		Leaderboard: board,
	})
}

// LinkMatch handles POST /contexts/{id}/matches
// The admin key is the season's; the match only has to exist.
func (h *ContextHandler) LinkMatch(w http.ResponseWriter, r *http.Request) {
	seasonID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}

	var req models.LinkMatchRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MatchID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "match_id is required")
		return
	}

	if err := h.catalog.LinkMatch(r.Context(), seasonID, req.MatchID); err != nil {
		writeError(w, "link match", err)
		return
	}

	slog.Info("match linked to season", "season_id", seasonID, "match_id", req.MatchID)

	w.WriteHeader(http.StatusNoContent)
}

// requireAdmin reads the context ID from the path and checks X-Admin-Key against it
func (h *ContextHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (string, bool) {
	contextID := r.PathValue("id")
	if contextID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "context_id is required")
		return "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(contextID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", false
	}

	return contextID, true
}
