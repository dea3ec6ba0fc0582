// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("POST /contexts/{id}/votes", middleware.WithLogging(votingHandler.CastVote))

Logs one line per request with method, path, status, remote, duration_ms and
the context_id path value. 5xx responses log at error level, 4xx at warn.
The wrapped writer still flushes, so event streams work behind it.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, OPTIONS with headers Content-Type, X-Admin-Key and
X-Voter-Token. Preflight requests get 204 No Content.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies (capped at MaxBodyBytes):

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Server-Sent Events

Stream JSON events to the browser:

	if err := middleware.StartEventStream(w); err != nil {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	middleware.ServerSentEvent(w, "leaderboard", board)

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used for the remote field of request logs.
*/
package middleware
