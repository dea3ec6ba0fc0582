// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/testutil"
)

func TestGetTally(t *testing.T) {
	env := testutil.NewTestEnv(t)
	handler := NewResultsHandler(env.Engine, env.Config)
	ctx := context.Background()

	contextID, _ := testutil.CreateTestContext(t, env.Store, env.Config, models.KindMatch)
	home := testutil.AddTestCandidate(t, env.Store, contextID, "Home")
	away := testutil.AddTestCandidate(t, env.Store, contextID, "Away")
	env.Engine.CastVote(ctx, contextID, "u1", home)
	env.Engine.CastVote(ctx, contextID, "u2", home)

	t.Run("sparse counts", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/contexts/"+contextID+"/tally", nil)
		req.SetPathValue("id", contextID)
		w := httptest.NewRecorder()

		handler.GetTally(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.Tally
		testutil.AssertJSON(t, w, &resp)

		if resp.TotalVotes != 2 {
			t.Errorf("Expected total_votes 2, got %d", resp.TotalVotes)
		}
		if resp.Counts[home] != 2 {
			t.Errorf("Expected 2 votes for home, got %d", resp.Counts[home])
		}
		if _, ok := resp.Counts[away]; ok {
			t.Error("Expected candidates without votes to be absent from counts")
		}
	})

	t.Run("unknown context", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/contexts/nope/tally", nil)
		req.SetPathValue("id", "nope")
		w := httptest.NewRecorder()

		handler.GetTally(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestGetLeaderboard(t *testing.T) {
	env := testutil.NewTestEnv(t)
	handler := NewResultsHandler(env.Engine, env.Config)
	ctx := context.Background()

	contextID, _ := testutil.CreateTestContext(t, env.Store, env.Config, models.KindMatch)
	a := testutil.AddTestCandidate(t, env.Store, contextID, "A")
	b := testutil.AddTestCandidate(t, env.Store, contextID, "B")
	c := testutil.AddTestCandidate(t, env.Store, contextID, "C")

	// b gets its first vote before a, so b wins the 1-1 tie; c has none
	env.Engine.CastVote(ctx, contextID, "u1", b)
	time.Sleep(5 * time.Millisecond)
	env.Engine.CastVote(ctx, contextID, "u2", a)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedOrder  []string
	}{
		{"full leaderboard", "", http.StatusOK, []string{b, a, c}},
		{"limited", "?limit=2", http.StatusOK, []string{b, a}},
		{"limit zero means all", "?limit=0", http.StatusOK, []string{b, a, c}},
		{"limit above size", "?limit=10", http.StatusOK, []string{b, a, c}},
		{"negative limit", "?limit=-1", http.StatusBadRequest, nil},
		{"non-numeric limit", "?limit=top", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/contexts/"+contextID+"/leaderboard"+tt.query, nil)
			req.SetPathValue("id", contextID)
			w := httptest.NewRecorder()

			handler.GetLeaderboard(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp models.LeaderboardResponse
			testutil.AssertJSON(t, w, &resp)

			if resp.TotalVotes != 2 {
				t.Errorf("Expected total_votes 2, got %d", resp.TotalVotes)
			}
			if len(resp.Entries) != len(tt.expectedOrder) {
				t.Fatalf("Expected %d entries, got %d", len(tt.expectedOrder), len(resp.Entries))
			}
			for i, id := range tt.expectedOrder {
				entry := resp.Entries[i]
				if entry.CandidateID != id {
					t.Errorf("Rank %d: expected %s, got %s", i+1, id, entry.CandidateID)
				}
				if entry.Rank != i+1 {
					t.Errorf("Expected rank %d, got %d", i+1, entry.Rank)
				}
			}
			if resp.Entries[0].VotePercentage != 50 {
				t.Errorf("Expected 50%%, got %v", resp.Entries[0].VotePercentage)
			}
		})
	}
}

func TestGetSeasonLeaderboard(t *testing.T) {
	env := testutil.NewTestEnv(t)
	handler := NewResultsHandler(env.Engine, env.Config)
	ctx := context.Background()

	seasonID, _ := testutil.CreateTestContext(t, env.Store, env.Config, models.KindSeason)
	matchID, _ := testutil.CreateTestContext(t, env.Store, env.Config, models.KindMatch)

	// The same player is a candidate in both contexts under one ID
	player := "player-9"
	for _, id := range []string{seasonID, matchID} {
		if err := env.Store.AddCandidate(ctx, models.Candidate{ID: player, ContextID: id, DisplayName: "Number 9"}); err != nil {
			t.Fatalf("AddCandidate() error = %v", err)
		}
	}
	other := testutil.AddTestCandidate(t, env.Store, seasonID, "Keeper")

	if err := env.Store.LinkMatch(ctx, seasonID, matchID); err != nil {
		t.Fatalf("LinkMatch() error = %v", err)
	}

	env.Engine.CastVote(ctx, matchID, "u1", player)
	env.Engine.CastVote(ctx, seasonID, "u1", player)
	env.Engine.CastVote(ctx, seasonID, "u2", other)

	req := httptest.NewRequest("GET", "/seasons/"+seasonID+"/leaderboard", nil)
	req.SetPathValue("id", seasonID)
	w := httptest.NewRecorder()

	handler.GetSeasonLeaderboard(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.LeaderboardResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.TotalVotes != 3 {
		t.Errorf("Expected 3 merged votes, got %d", resp.TotalVotes)
	}
	if len(resp.Entries) != 2 || resp.Entries[0].CandidateID != player || resp.Entries[0].TotalVotes != 2 {
		t.Fatalf("Expected %s to lead with 2 votes, got %+v", player, resp.Entries)
	}

	t.Run("match is not a season", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/seasons/"+matchID+"/leaderboard", nil)
		req.SetPathValue("id", matchID)
		w := httptest.NewRecorder()

		handler.GetSeasonLeaderboard(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestStreamLeaderboard(t *testing.T) {
	env := testutil.NewTestEnv(t)
	handler := NewResultsHandler(env.Engine, env.Config)

	contextID, _ := testutil.CreateTestContext(t, env.Store, env.Config, models.KindMatch)
	home := testutil.AddTestCandidate(t, env.Store, contextID, "Home")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /contexts/{id}/leaderboard/stream", handler.StreamLeaderboard)
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET", server.URL+"/contexts/"+contextID+"/leaderboard/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to open stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Expected text/event-stream, got %s", ct)
	}

	events := make(chan models.LeaderboardResponse, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var board models.LeaderboardResponse
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &board) == nil {
				events <- board
			}
		}
		close(events)
	}()

	next := func() models.LeaderboardResponse {
		t.Helper()
		select {
		case board, ok := <-events:
			if !ok {
				t.Fatal("Stream ended early")
			}
			return board
		case <-ctx.Done():
			t.Fatal("Timed out waiting for leaderboard event")
		}
		return models.LeaderboardResponse{}
	}

	initial := next()
	if initial.TotalVotes != 0 || len(initial.Entries) != 1 {
		t.Fatalf("Expected empty initial leaderboard with one entry, got %+v", initial)
	}

	if _, err := env.Engine.CastVote(context.Background(), contextID, "u1", home); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}

	updated := next()
	if updated.TotalVotes != 1 || updated.Entries[0].TotalVotes != 1 {
		t.Errorf("Expected leaderboard with one vote, got %+v", updated)
	}
}

func TestStreamLeaderboard_UnknownContext(t *testing.T) {
	env := testutil.NewTestEnv(t)
	handler := NewResultsHandler(env.Engine, env.Config)

	req := httptest.NewRequest("GET", "/contexts/nope/leaderboard/stream", nil)
	req.SetPathValue("id", "nope")
	w := httptest.NewRecorder()

	handler.StreamLeaderboard(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
}

// plainWriter hides the recorder's Flush method
type plainWriter struct {
	http.ResponseWriter
}

func TestStreamLeaderboard_StreamingUnsupported(t *testing.T) {
	env := testutil.NewTestEnv(t)
	handler := NewResultsHandler(env.Engine, env.Config)

	contextID, _ := testutil.CreateTestContext(t, env.Store, env.Config, models.KindMatch)
	testutil.AddTestCandidate(t, env.Store, contextID, "Home")

	req := httptest.NewRequest("GET", "/contexts/"+contextID+"/leaderboard/stream", nil)
	req.SetPathValue("id", contextID)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.StreamLeaderboard(plainWriter{w}, req)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("StreamLeaderboard kept blocking on a writer that cannot flush")
	}

	testutil.AssertStatus(t, w, http.StatusInternalServerError)
	if env.Broker.NumContextSubscriptions(contextID) != 0 {
		t.Errorf("Expected the watch subscription to be released")
	}
}
