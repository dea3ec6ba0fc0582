// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package engine exposes MVP voting as three operations: cast a vote, read the
current tally, read the leaderboard.

Every read re-reads the full vote set of the context and recomputes the tally
from scratch; nothing keeps running counters. Watch builds on that: each
change notification triggers a full re-read and re-rank.

	eng := engine.New(votes, catalog, broker)
	outcome, err := eng.CastVote(ctx, "match-42", voterID, "home")
	board, err := eng.Leaderboard(ctx, "match-42")
*/
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/leaderboard"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/ledger"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/notify"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/store"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/tally"
)

var ErrNotSeason = errors.New("context is not a season")

// Notifier both publishes and delivers change notifications, e.g. *notify.Broker
type Notifier interface {
	notify.Publisher
	notify.Subscriber
}

type Engine struct {
	votes    store.VoteStore
	catalog  store.ContextCatalog
	notifier Notifier
	ledger   *ledger.Ledger
}

// New wires the engine. Ledger options are applied after the notifier is set
// as publisher, so they may override it.
func New(votes store.LockingVoteStore, catalog store.ContextCatalog, notifier Notifier, opts ...ledger.Option) *Engine {
	opts = append([]ledger.Option{ledger.WithPublisher(notifier)}, opts...)
	return &Engine{
		votes:    votes,
		catalog:  catalog,
		notifier: notifier,
		ledger:   ledger.New(votes, opts...),
	}
}

// CastVote validates against the context's candidate set and toggles the vote
func (e *Engine) CastVote(ctx context.Context, contextID, voterID, candidateID string) (models.VoteOutcome, error) {
	if voterID == "" {
		return models.VoteOutcome{}, ledger.ErrUnauthenticated
	}
	candidates, err := e.catalog.ListCandidates(ctx, contextID)
	if err != nil {
		return models.VoteOutcome{}, fmt.Errorf("%w: list candidates: %w", ledger.ErrStoreUnavailable, err)
	}
	return e.ledger.CastVote(ctx, contextID, voterID, candidateID, candidates)
}

// CurrentVote returns the voter's record, or nil if there is none
func (e *Engine) CurrentVote(ctx context.Context, contextID, voterID string) (*models.VoteRecord, error) {
	return e.ledger.CurrentVote(ctx, contextID, voterID)
}

// Tally recomputes the vote counts of one context
func (e *Engine) Tally(ctx context.Context, contextID string) (models.Tally, error) {
	if _, err := e.catalog.GetContext(ctx, contextID); err != nil {
		return models.Tally{}, err
	}
	return e.tally(ctx, contextID)
}

func (e *Engine) tally(ctx context.Context, contextID string) (models.Tally, error) {
	records, err := e.votes.ListVotes(ctx, contextID)
	if err != nil {
		return models.Tally{}, fmt.Errorf("%w: list votes: %w", ledger.ErrStoreUnavailable, err)
	}
	return tally.Compute(contextID, records), nil
}

// Leaderboard ranks every candidate of the context
func (e *Engine) Leaderboard(ctx context.Context, contextID string) (models.LeaderboardResponse, error) {
	t, err := e.Tally(ctx, contextID)
	if err != nil {
		return models.LeaderboardResponse{}, err
	}
	return e.rank(ctx, contextID, t)
}

// SeasonLeaderboard merges the season's own votes with the votes of every
// linked match and ranks the season's candidates
func (e *Engine) SeasonLeaderboard(ctx context.Context, seasonID string) (models.LeaderboardResponse, error) {
	matchIDs, err := e.seasonMatches(ctx, seasonID)
	if err != nil {
		return models.LeaderboardResponse{}, err
	}

	tallies := make([]models.Tally, 0, len(matchIDs)+1)
	for _, id := range append([]string{seasonID}, matchIDs...) {
		t, err := e.tally(ctx, id)
		if err != nil {
			return models.LeaderboardResponse{}, err
		}
		tallies = append(tallies, t)
	}

	return e.rank(ctx, seasonID, tally.Merge(seasonID, tallies...))
}

func (e *Engine) seasonMatches(ctx context.Context, seasonID string) ([]string, error) {
	vc, err := e.catalog.GetContext(ctx, seasonID)
	if err != nil {
		return nil, err
	}
	if vc.Kind != models.KindSeason {
		return nil, ErrNotSeason
	}

	matchIDs, err := e.catalog.ListSeasonMatches(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("%w: list season matches: %w", ledger.ErrStoreUnavailable, err)
	}
	return matchIDs, nil
}

func (e *Engine) rank(ctx context.Context, contextID string, t models.Tally) (models.LeaderboardResponse, error) {
	candidates, err := e.catalog.ListCandidates(ctx, contextID)
	if err != nil {
		return models.LeaderboardResponse{}, fmt.Errorf("%w: list candidates: %w", ledger.ErrStoreUnavailable, err)
	}

	return models.LeaderboardResponse{
		ContextID:  contextID,
		TotalVotes: t.TotalVotes,
		Entries:    leaderboard.Build(t, candidates),
	}, nil
}
