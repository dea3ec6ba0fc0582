// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package leaderboard ranks candidates by vote share.
package leaderboard

import (
	"sort"
	"time"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
)

type ranked struct {
	entry     models.LeaderboardEntry
	firstVote time.Time
	hasVote   bool
}

// Build ranks every candidate against the tally.
//
// Candidates without votes are included with zero counts. Ordering is by
// votes (desc), then earliest first vote, then candidate ID. Ranks are
// 1-indexed and never shared.
func Build(t models.Tally, candidates []models.Candidate) []models.LeaderboardEntry {
	seen := make(map[string]bool, len(candidates))
	rows := make([]ranked, 0, len(candidates))

	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		votes := t.Counts[c.ID]
		first, hasVote := t.FirstVoteAt[c.ID]
		rows = append(rows, ranked{
			entry: models.LeaderboardEntry{
				CandidateID:    c.ID,
				DisplayName:    c.DisplayName,
				TotalVotes:     votes,
				UniqueVoters:   votes,
				VotePercentage: Percentage(votes, t.TotalVotes),
			},
			firstVote: first,
			hasVote:   hasVote,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]

		// 1. More votes wins
		if a.entry.TotalVotes != b.entry.TotalVotes {
			return a.entry.TotalVotes > b.entry.TotalVotes
		}

		// 2. Earlier first vote wins
		if a.hasVote != b.hasVote {
			return a.hasVote
		}
		if a.hasVote && !a.firstVote.Equal(b.firstVote) {
			return a.firstVote.Before(b.firstVote)
		}

		// 3. Stable tie-breaking by candidate ID (ascending)
		return a.entry.CandidateID < b.entry.CandidateID
	})

	entries := make([]models.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.entry
		entries[i].Rank = i + 1
	}

	return entries
}

// Percentage returns votes/total*100 rounded half-up to one decimal.
// A zero total yields 0.
func Percentage(votes, total int) float64 {
	if total <= 0 || votes <= 0 {
		return 0
	}
	// Work in integer tenths so x.x5 boundaries round exactly
	tenths := (int64(votes)*2000 + int64(total)) / (2 * int64(total))
	return float64(tenths) / 10
}

// Top returns at most the first n entries. n <= 0 returns all of them.
func Top(entries []models.LeaderboardEntry, n int) []models.LeaderboardEntry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
