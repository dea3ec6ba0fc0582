// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/engine"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/ledger"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/middleware"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/notify"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/store"
)

// writeError maps engine, ledger and store errors onto HTTP statuses.
// Anything unrecognised is logged and reported as a 500.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnauthenticated):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voter identity required")
	case errors.Is(err, store.ErrContextNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Context not found")
	case errors.Is(err, ledger.ErrContextClosed):
		middleware.ErrorResponse(w, http.StatusConflict, "Voting is closed for this context")
	case errors.Is(err, ledger.ErrInvalidCandidate):
		// Clients should reload the candidate list and retry
		middleware.JSONResponse(w, http.StatusBadRequest, models.ErrorResponse{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: "refresh",
		})
	case errors.Is(err, engine.ErrNotSeason), errors.Is(err, store.ErrKindMismatch):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrContextExists):
		middleware.ErrorResponse(w, http.StatusConflict, "Context already exists")
	case errors.Is(err, store.ErrCandidateExists):
		middleware.ErrorResponse(w, http.StatusConflict, "Candidate already exists")
	case errors.Is(err, notify.ErrQuotaExceeded):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Too many live subscriptions")
	case errors.Is(err, ledger.ErrStoreUnavailable):
		slog.Error(op+" failed", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Vote store unavailable, try again")
	default:
		slog.Error(op+" failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
	}
}
