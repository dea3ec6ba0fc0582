// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger is the only writer of vote records.

A voter has at most one vote per context. CastVote toggles:

	no vote           → cast      (record created)
	same candidate    → retracted (record deleted)
	other candidate   → switched  (record overwritten, cast time refreshed)

Because of the toggle, repeating a call is not a retry: casting the same
candidate twice yields cast then retracted. After a timeout or a store error,
callers must read CurrentVote before deciding what to do.
*/
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/notify"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/store"
)

var (
	ErrUnauthenticated  = errors.New("voter identity required")
	ErrContextClosed    = errors.New("vote context is closed")
	ErrContextNotFound  = store.ErrContextNotFound
	ErrInvalidCandidate = errors.New("candidate is not valid for this context")
	ErrStoreUnavailable = errors.New("vote store unavailable")
)

type Ledger struct {
	votes     store.LockingVoteStore
	publisher notify.Publisher
	now       func() time.Time
}

type Option func(*Ledger)

// WithPublisher sets where change notifications go after a successful cast
func WithPublisher(p notify.Publisher) Option {
	return func(l *Ledger) {
		l.publisher = p
	}
}

// WithClock overrides the time source used for CastAt
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func New(votes store.LockingVoteStore, opts ...Option) *Ledger {
	l := &Ledger{
		votes:     votes,
		publisher: notify.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CastVote applies the voter's click on candidateID within contextID.
//
// candidates is the authoritative candidate set of the context. Policy
// failures (ErrUnauthenticated, ErrContextClosed, ErrContextNotFound,
// ErrInvalidCandidate) never write. Store failures match ErrStoreUnavailable
// and keep the store's error in the chain.
func (l *Ledger) CastVote(ctx context.Context, contextID, voterID, candidateID string, candidates []models.Candidate) (models.VoteOutcome, error) {
	if voterID == "" {
		return models.VoteOutcome{}, ErrUnauthenticated
	}

	var outcome models.VoteOutcome
	err := l.withVoterLock(ctx, contextID, voterID, func(votes store.VoteStore) error {
		// Checked under the voter lock so a concurrent close cannot slip in
		// before the write
		vc, err := votes.GetContext(ctx, contextID)
		if errors.Is(err, store.ErrContextNotFound) {
			return ErrContextNotFound
		}
		if err != nil {
			return unavailable("get context", err)
		}
		if !vc.IsOpen {
			return ErrContextClosed
		}
		if !containsCandidate(candidates, candidateID) {
			return ErrInvalidCandidate
		}

		outcome, err = l.apply(ctx, votes, contextID, voterID, candidateID)
		return err
	})
	if err != nil {
		return models.VoteOutcome{}, err
	}

	l.publisher.Publish(contextID)
	return outcome, nil
}

// apply is the read-modify-write of a single record. It runs inside the
// voter's critical section.
func (l *Ledger) apply(ctx context.Context, votes store.VoteStore, contextID, voterID, candidateID string) (models.VoteOutcome, error) {
	existing, err := votes.GetVote(ctx, contextID, voterID)
	if err != nil {
		return models.VoteOutcome{}, unavailable("get vote", err)
	}

	switch {
	case existing == nil:
		if err := votes.UpsertVote(ctx, contextID, voterID, candidateID, l.now()); err != nil {
			return models.VoteOutcome{}, unavailable("upsert vote", err)
		}
		return models.VoteOutcome{Status: models.StatusCast, CandidateID: candidateID}, nil

	case existing.CandidateID == candidateID:
		if err := votes.DeleteVote(ctx, contextID, voterID); err != nil {
			return models.VoteOutcome{}, unavailable("delete vote", err)
		}
		return models.VoteOutcome{Status: models.StatusRetracted}, nil

	default:
		if err := votes.UpsertVote(ctx, contextID, voterID, candidateID, l.now()); err != nil {
			return models.VoteOutcome{}, unavailable("upsert vote", err)
		}
		return models.VoteOutcome{
			Status:      models.StatusSwitched,
			CandidateID: candidateID,
			From:        existing.CandidateID,
			To:          candidateID,
		}, nil
	}
}

// CurrentVote returns the voter's record, or nil if there is none
func (l *Ledger) CurrentVote(ctx context.Context, contextID, voterID string) (*models.VoteRecord, error) {
	if voterID == "" {
		return nil, ErrUnauthenticated
	}
	rec, err := l.votes.GetVote(ctx, contextID, voterID)
	if err != nil {
		return nil, unavailable("get vote", err)
	}
	return rec, nil
}

func (l *Ledger) withVoterLock(ctx context.Context, contextID, voterID string, fn func(store.VoteStore) error) error {
	err := l.votes.WithVoterLock(ctx, contextID, voterID, fn)
	if err != nil && !isLedgerError(err) {
		// Begin/commit failures come back unwrapped
		return unavailable("commit vote", err)
	}
	return err
}

func isLedgerError(err error) bool {
	for _, target := range []error{ErrStoreUnavailable, ErrContextClosed, ErrContextNotFound, ErrInvalidCandidate} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func containsCandidate(candidates []models.Candidate, candidateID string) bool {
	if candidateID == "" {
		return false
	}
	for _, c := range candidates {
		if c.ID == candidateID {
			return true
		}
	}
	return false
}
