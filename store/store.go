// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
)

var (
	ErrContextNotFound = errors.New("vote context not found")
	ErrContextExists   = errors.New("vote context already exists")
	ErrKindMismatch    = errors.New("context kind mismatch")
	ErrCandidateExists = errors.New("candidate already exists in context")
)

// VoteStore holds vote records keyed by (context, voter)
type VoteStore interface {
	// UpsertVote creates or overwrites the voter's record in the context
	UpsertVote(ctx context.Context, contextID, voterID, candidateID string, castAt time.Time) error
	// DeleteVote removes the voter's record. Deleting a missing record is not an error.
	DeleteVote(ctx context.Context, contextID, voterID string) error
	// GetVote returns nil, nil when the voter has no record
	GetVote(ctx context.Context, contextID, voterID string) (*models.VoteRecord, error)
	ListVotes(ctx context.Context, contextID string) ([]models.VoteRecord, error)
	// GetContext returns ErrContextNotFound for unknown contexts. Read through
	// the VoteStore handed to WithVoterLock, the open state cannot change
	// until fn returns.
	GetContext(ctx context.Context, contextID string) (*models.VoteContext, error)
}

// VoterLocker is implemented by stores that can run a read-modify-write of a
// single voter's record atomically. fn receives a VoteStore bound to the
// critical section and must use it for every read and write.
type VoterLocker interface {
	WithVoterLock(ctx context.Context, contextID, voterID string, fn func(VoteStore) error) error
}

// LockingVoteStore is what the ledger writes through
type LockingVoteStore interface {
	VoteStore
	VoterLocker
}

// ContextCatalog owns vote contexts, their candidates and season membership
type ContextCatalog interface {
	CreateContext(ctx context.Context, vc models.VoteContext) error
	GetContext(ctx context.Context, contextID string) (*models.VoteContext, error)
	CloseContext(ctx context.Context, contextID string, closedAt time.Time) error
	AddCandidate(ctx context.Context, c models.Candidate) error
	ListCandidates(ctx context.Context, contextID string) ([]models.Candidate, error)
	// LinkMatch makes a match context feed the season leaderboard
	LinkMatch(ctx context.Context, seasonID, matchID string) error
	ListSeasonMatches(ctx context.Context, seasonID string) ([]string, error)
}
