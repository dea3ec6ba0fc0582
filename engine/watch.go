// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
)

// Watch calls fn with the current leaderboard, then again after every change
// notification for the context, until ctx is done. fn runs on the caller's
// goroutine.
func (e *Engine) Watch(ctx context.Context, contextID string, fn func(models.LeaderboardResponse)) error {
	if _, err := e.catalog.GetContext(ctx, contextID); err != nil {
		return err
	}
	return e.watch(ctx, []string{contextID}, func() (models.LeaderboardResponse, error) {
		return e.Leaderboard(ctx, contextID)
	}, fn)
}

// WatchSeason is Watch for a season leaderboard. It follows the season and
// every match linked at subscription time.
func (e *Engine) WatchSeason(ctx context.Context, seasonID string, fn func(models.LeaderboardResponse)) error {
	matchIDs, err := e.seasonMatches(ctx, seasonID)
	if err != nil {
		return err
	}
	return e.watch(ctx, append([]string{seasonID}, matchIDs...), func() (models.LeaderboardResponse, error) {
		return e.SeasonLeaderboard(ctx, seasonID)
	}, fn)
}

func (e *Engine) watch(ctx context.Context, contextIDs []string, load func() (models.LeaderboardResponse, error), fn func(models.LeaderboardResponse)) error {
	changed := make(chan struct{}, 1)
	signal := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}

	// Subscribe before the first read so no change slips in between
	for _, id := range contextIDs {
		cancel, err := e.notifier.Subscribe(id, signal)
		if err != nil {
			return err
		}
		defer cancel()
	}

	board, err := load()
	if err != nil {
		return err
	}
	fn(board)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			board, err := load()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			fn(board)
		}
	}
}
