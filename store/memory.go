// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
)

// Memory is an in-process VoteStore and ContextCatalog
type Memory struct {
	mu         sync.RWMutex
	votes      map[string]map[string]models.VoteRecord // context -> voter -> record
	contexts   map[string]models.VoteContext
	candidates map[string][]models.Candidate
	seasons    map[string][]string

	locks keyedMutex
	// Held shared by every voter critical section and exclusively by CloseContext
	closing sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{
		votes:      make(map[string]map[string]models.VoteRecord),
		contexts:   make(map[string]models.VoteContext),
		candidates: make(map[string][]models.Candidate),
		seasons:    make(map[string][]string),
	}
}

func (m *Memory) UpsertVote(_ context.Context, contextID, voterID, candidateID string, castAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byVoter, ok := m.votes[contextID]
	if !ok {
		byVoter = make(map[string]models.VoteRecord)
		m.votes[contextID] = byVoter
	}
	byVoter[voterID] = models.VoteRecord{
		ContextID:   contextID,
		VoterID:     voterID,
		CandidateID: candidateID,
		CastAt:      castAt,
	}
	return nil
}

func (m *Memory) DeleteVote(_ context.Context, contextID, voterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.votes[contextID], voterID)
	return nil
}

func (m *Memory) GetVote(_ context.Context, contextID, voterID string) (*models.VoteRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.votes[contextID][voterID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// ListVotes returns the records ordered by cast time, then voter
func (m *Memory) ListVotes(_ context.Context, contextID string) ([]models.VoteRecord, error) {
	m.mu.RLock()
	records := make([]models.VoteRecord, 0, len(m.votes[contextID]))
	for _, rec := range m.votes[contextID] {
		records = append(records, rec)
	}
	m.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CastAt.Equal(records[j].CastAt) {
			return records[i].CastAt.Before(records[j].CastAt)
		}
		return records[i].VoterID < records[j].VoterID
	})
	return records, nil
}

// WithVoterLock serialises callers on the same (context, voter) pair.
// Other voters proceed in parallel. CloseContext waits for fn to return.
func (m *Memory) WithVoterLock(_ context.Context, contextID, voterID string, fn func(VoteStore) error) error {
	unlock := m.locks.lock(voteKey{contextID, voterID})
	defer unlock()

	m.closing.RLock()
	defer m.closing.RUnlock()

	return fn(m)
}

func (m *Memory) CreateContext(_ context.Context, vc models.VoteContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contexts[vc.ID]; ok {
		return fmt.Errorf("%s: %w", vc.ID, ErrContextExists)
	}
	m.contexts[vc.ID] = vc
	return nil
}

func (m *Memory) GetContext(_ context.Context, contextID string) (*models.VoteContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vc, ok := m.contexts[contextID]
	if !ok {
		return nil, ErrContextNotFound
	}
	return &vc, nil
}

func (m *Memory) CloseContext(_ context.Context, contextID string, closedAt time.Time) error {
	m.closing.Lock()
	defer m.closing.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	vc, ok := m.contexts[contextID]
	if !ok {
		return ErrContextNotFound
	}
	vc.IsOpen = false
	vc.ClosedAt = &closedAt
	m.contexts[contextID] = vc
	return nil
}

func (m *Memory) AddCandidate(_ context.Context, c models.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contexts[c.ContextID]; !ok {
		return ErrContextNotFound
	}
	for _, existing := range m.candidates[c.ContextID] {
		if existing.ID == c.ID {
			return fmt.Errorf("%s: %w", c.ID, ErrCandidateExists)
		}
	}
	m.candidates[c.ContextID] = append(m.candidates[c.ContextID], c)
	return nil
}

func (m *Memory) ListCandidates(_ context.Context, contextID string) ([]models.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Candidate, len(m.candidates[contextID]))
	copy(out, m.candidates[contextID])
	return out, nil
}

func (m *Memory) LinkMatch(_ context.Context, seasonID, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	season, ok := m.contexts[seasonID]
	if !ok {
		return ErrContextNotFound
	}
	match, ok := m.contexts[matchID]
	if !ok {
		return ErrContextNotFound
	}
	if season.Kind != models.KindSeason || match.Kind != models.KindMatch {
		return ErrKindMismatch
	}
	for _, id := range m.seasons[seasonID] {
		if id == matchID {
			return nil
		}
	}
	m.seasons[seasonID] = append(m.seasons[seasonID], matchID)
	return nil
}

func (m *Memory) ListSeasonMatches(_ context.Context, seasonID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.seasons[seasonID]))
	copy(out, m.seasons[seasonID])
	sort.Strings(out)
	return out, nil
}
