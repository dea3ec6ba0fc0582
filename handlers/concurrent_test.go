// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/testutil"
)

// TestConcurrentVotes verifies that many voters voting at once each leave
// exactly one record and the tally matches
func TestConcurrentVotes(t *testing.T) {
	env := testutil.NewTestEnv(t)
	handler := NewVotingHandler(env.Engine, env.Config)

	contextID, _ := testutil.CreateTestContext(t, env.Store, env.Config, models.KindMatch)
	candidates := []string{
		testutil.AddTestCandidate(t, env.Store, contextID, "Home"),
		testutil.AddTestCandidate(t, env.Store, contextID, "Away"),
		testutil.AddTestCandidate(t, env.Store, contextID, "Draw"),
	}

	numVoters := 20
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()

			token := testutil.VoterToken(env.Config, fmt.Sprintf("voter-%d", voterIdx))
			w := castVote(handler, contextID, token, candidates[voterIdx%len(candidates)])

			if w.Code == http.StatusOK {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful votes, got %d", numVoters, successCount.Load())
	}

	tally, err := env.Engine.Tally(context.Background(), contextID)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if tally.TotalVotes != numVoters {
		t.Errorf("Expected %d votes in tally, got %d", numVoters, tally.TotalVotes)
	}
	// 20 voters over 3 candidates: 7, 7, 6
	expected := []int{7, 7, 6}
	for i, id := range candidates {
		if tally.Counts[id] != expected[i] {
			t.Errorf("Expected %d votes for candidate %d, got %d", expected[i], i, tally.Counts[id])
		}
	}
}

// TestConcurrentTogglesSameVoter checks that rapid repeated clicks by one
// voter serialize: an even number of clicks on one candidate leaves no vote
func TestConcurrentTogglesSameVoter(t *testing.T) {
	env := testutil.NewTestEnv(t)
	handler := NewVotingHandler(env.Engine, env.Config)

	contextID, _ := testutil.CreateTestContext(t, env.Store, env.Config, models.KindMatch)
	home := testutil.AddTestCandidate(t, env.Store, contextID, "Home")
	token := testutil.VoterToken(env.Config, "rapid-clicker")

	numClicks := 10
	var cast, retracted atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numClicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := castVote(handler, contextID, token, home)
			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
				return
			}

			var resp models.CastVoteResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Errorf("Failed to decode response: %v", err)
				return
			}
			switch resp.Outcome.Status {
			case models.StatusCast:
				cast.Add(1)
			case models.StatusRetracted:
				retracted.Add(1)
			}
		}()
	}

	wg.Wait()

	if cast.Load() != retracted.Load() {
		t.Errorf("Expected casts and retractions to alternate, got %d casts and %d retractions",
			cast.Load(), retracted.Load())
	}

	rec, err := env.Store.GetVote(context.Background(), contextID, "rapid-clicker")
	if err != nil {
		t.Fatalf("GetVote() error = %v", err)
	}
	if rec != nil {
		t.Errorf("Expected no vote after %d clicks, got %+v", numClicks, rec)
	}
}

// TestParallelContexts verifies that votes in different contexts stay apart
func TestParallelContexts(t *testing.T) {
	env := testutil.NewTestEnv(t)
	handler := NewVotingHandler(env.Engine, env.Config)

	numContexts := 4
	votersPerContext := 5

	type match struct {
		id        string
		candidate string
	}
	matches := make([]match, numContexts)
	for i := range matches {
		id, _ := testutil.CreateTestContext(t, env.Store, env.Config, models.KindMatch)
		matches[i] = match{id: id, candidate: testutil.AddTestCandidate(t, env.Store, id, "Home")}
	}

	var wg sync.WaitGroup
	for _, m := range matches {
		for v := 0; v < votersPerContext; v++ {
			wg.Add(1)
			go func(m match, voter string) {
				defer wg.Done()
				w := castVote(handler, m.id, testutil.VoterToken(env.Config, voter), m.candidate)
				if w.Code != http.StatusOK {
					t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
				}
			}(m, fmt.Sprintf("voter-%d", v))
		}
	}

	wg.Wait()

	for _, m := range matches {
		tally, err := env.Engine.Tally(context.Background(), m.id)
		if err != nil {
			t.Fatalf("Tally() error = %v", err)
		}
		if tally.TotalVotes != votersPerContext {
			t.Errorf("Context %s: expected %d votes, got %d", m.id, votersPerContext, tally.TotalVotes)
		}
	}
}
