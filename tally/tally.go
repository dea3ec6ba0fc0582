// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package tally turns vote records into per-candidate counts.
//
// Both functions are pure: they never touch a store and can be re-run on
// every change notification against a fresh snapshot.
package tally

import (
	"time"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
)

// Compute counts the votes of one context.
// Records belonging to other contexts are skipped. Candidates without votes
// are absent from Counts.
func Compute(contextID string, records []models.VoteRecord) models.Tally {
	t := newTally(contextID)

	for _, rec := range records {
		if rec.ContextID != contextID {
			continue
		}
		t.Counts[rec.CandidateID]++
		t.TotalVotes++

		if first, ok := t.FirstVoteAt[rec.CandidateID]; !ok || rec.CastAt.Before(first) {
			t.FirstVoteAt[rec.CandidateID] = rec.CastAt
		}
	}

	return t
}

// Merge sums several tallies into one, e.g. every match of a season.
// The earliest first vote per candidate is kept.
func Merge(contextID string, tallies ...models.Tally) models.Tally {
	merged := newTally(contextID)

	for _, t := range tallies {
		for candidateID, n := range t.Counts {
			if n == 0 {
				continue
			}
			merged.Counts[candidateID] += n
		}
		merged.TotalVotes += t.TotalVotes

		for candidateID, at := range t.FirstVoteAt {
			if first, ok := merged.FirstVoteAt[candidateID]; !ok || at.Before(first) {
				merged.FirstVoteAt[candidateID] = at
			}
		}
	}

	return merged
}

func newTally(contextID string) models.Tally {
	return models.Tally{
		ContextID:   contextID,
		Counts:      make(map[string]int),
		FirstVoteAt: make(map[string]time.Time),
	}
}
