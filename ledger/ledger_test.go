// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/store"
)

var t0 = time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu        sync.Mutex
	published []string
}

func (p *recordingPublisher) Publish(contextID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, contextID)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

type failingStore struct {
	*store.Memory
	err error
}

func (f failingStore) UpsertVote(context.Context, string, string, string, time.Time) error {
	return f.err
}

func (f failingStore) WithVoterLock(ctx context.Context, contextID, voterID string, fn func(store.VoteStore) error) error {
	return f.Memory.WithVoterLock(ctx, contextID, voterID, func(store.VoteStore) error {
		return fn(f)
	})
}

// closingStore runs beforeLock ahead of the voter critical section and
// duringRead from inside it, on the first GetVote
type closingStore struct {
	*store.Memory
	beforeLock func()
	duringRead func()
}

func (c *closingStore) WithVoterLock(ctx context.Context, contextID, voterID string, fn func(store.VoteStore) error) error {
	if c.beforeLock != nil {
		c.beforeLock()
	}
	return c.Memory.WithVoterLock(ctx, contextID, voterID, func(votes store.VoteStore) error {
		return fn(hookedVotes{VoteStore: votes, onGetVote: c.duringRead})
	})
}

type hookedVotes struct {
	store.VoteStore
	onGetVote func()
}

func (h hookedVotes) GetVote(ctx context.Context, contextID, voterID string) (*models.VoteRecord, error) {
	if h.onGetVote != nil {
		h.onGetVote()
	}
	return h.VoteStore.GetVote(ctx, contextID, voterID)
}

type fixture struct {
	mem       *store.Memory
	ledger    *Ledger
	publisher *recordingPublisher
	home      models.Candidate
	away      models.Candidate
}

func (f *fixture) candidates() []models.Candidate {
	return []models.Candidate{f.home, f.away}
}

func newFixture(t *testing.T, open bool) *fixture {
	t.Helper()

	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.CreateContext(ctx, models.VoteContext{ID: "m1", Kind: models.KindMatch, Title: "Derby", IsOpen: open, CreatedAt: t0}))

	var clockMu sync.Mutex
	clock := t0
	pub := &recordingPublisher{}
	f := &fixture{
		mem:       mem,
		publisher: pub,
		home:      models.Candidate{ID: "home", ContextID: "m1", DisplayName: "Home FC"},
		away:      models.Candidate{ID: "away", ContextID: "m1", DisplayName: "Away United"},
	}
	f.ledger = New(mem, WithPublisher(pub), WithClock(func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}))
	return f
}

func TestCastVote_BasicCast(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	outcome, err := f.ledger.CastVote(ctx, "m1", "u1", "home", f.candidates())
	require.NoError(t, err)
	assert.Equal(t, models.VoteOutcome{Status: models.StatusCast, CandidateID: "home"}, outcome)

	rec, err := f.mem.GetVote(ctx, "m1", "u1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "home", rec.CandidateID)
	assert.Equal(t, t0.Add(time.Second), rec.CastAt)
	assert.Equal(t, []string{"m1"}, f.publisher.published)
}

func TestCastVote_IdempotentToggle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.ledger.CastVote(ctx, "m1", "u1", "home", f.candidates())
	require.NoError(t, err)
	second, err := f.ledger.CastVote(ctx, "m1", "u1", "home", f.candidates())
	require.NoError(t, err)

	assert.Equal(t, models.StatusCast, first.Status)
	assert.Equal(t, models.VoteOutcome{Status: models.StatusRetracted}, second)

	votes, err := f.mem.ListVotes(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestCastVote_SwitchPreservesCount(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.ledger.CastVote(ctx, "m1", "u1", "home", f.candidates())
	require.NoError(t, err)
	outcome, err := f.ledger.CastVote(ctx, "m1", "u1", "away", f.candidates())
	require.NoError(t, err)

	assert.Equal(t, models.VoteOutcome{Status: models.StatusSwitched, CandidateID: "away", From: "home", To: "away"}, outcome)

	votes, err := f.mem.ListVotes(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "away", votes[0].CandidateID)
	// Cast time refreshed on switch
	assert.Equal(t, t0.Add(2*time.Second), votes[0].CastAt)
}

func TestCastVote_SwitchThenRetract(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	var statuses []string
	for _, c := range []string{"home", "away", "away"} {
		outcome, err := f.ledger.CastVote(ctx, "m1", "u1", c, f.candidates())
		require.NoError(t, err)
		statuses = append(statuses, outcome.Status)
	}

	assert.Equal(t, []string{models.StatusCast, models.StatusSwitched, models.StatusRetracted}, statuses)

	rec, err := f.ledger.CurrentVote(ctx, "m1", "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 3, f.publisher.count())
}

func TestCastVote_SingleActiveVote(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	sequence := []string{"home", "away", "home", "home", "away", "away", "home"}
	for _, c := range sequence {
		_, err := f.ledger.CastVote(ctx, "m1", "u1", c, f.candidates())
		require.NoError(t, err)

		votes, err := f.mem.ListVotes(ctx, "m1")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(votes), 1)
	}
}

func TestCastVote_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		open      bool
		contextID string
		voterID   string
		candidate string
		wantErr   error
	}{
		{"closed context", false, "m1", "u2", "home", ErrContextClosed},
		{"unknown context", true, "nope", "u2", "home", ErrContextNotFound},
		{"missing voter", true, "m1", "", "home", ErrUnauthenticated},
		{"unknown candidate", true, "m1", "u2", "referee", ErrInvalidCandidate},
		{"empty candidate", true, "m1", "u2", "", ErrInvalidCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.open)
			ctx := context.Background()
			require.NoError(t, f.mem.UpsertVote(ctx, "m1", "u9", "away", t0))

			outcome, err := f.ledger.CastVote(ctx, tt.contextID, tt.voterID, tt.candidate, f.candidates())

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, outcome.Status)

			votes, err := f.mem.ListVotes(ctx, "m1")
			require.NoError(t, err)
			require.Len(t, votes, 1, "rejected vote must not mutate the store")
			assert.Equal(t, "u9", votes[0].VoterID)
			assert.Zero(t, f.publisher.count())
		})
	}
}

func TestCastVote_StoreUnavailable(t *testing.T) {
	f := newFixture(t, true)
	boom := errors.New("connection reset")
	l := New(failingStore{Memory: f.mem, err: boom}, WithPublisher(f.publisher))

	_, err := l.CastVote(context.Background(), "m1", "u1", "home", f.candidates())

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.publisher.count())
}

func TestCastVote_ConcurrentSameVoter(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	const clicks = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[string]int{}
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.ledger.CastVote(ctx, "m1", "u1", "home", f.candidates())
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			counts[outcome.Status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	// Serialised toggles alternate cast/retract; an even number leaves nothing
	assert.Equal(t, clicks/2, counts[models.StatusCast])
	assert.Equal(t, clicks/2, counts[models.StatusRetracted])
	votes, err := f.mem.ListVotes(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestCastVote_ClosedBeforeCriticalSection(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	s := &closingStore{Memory: f.mem}
	s.beforeLock = func() {
		require.NoError(t, f.mem.CloseContext(ctx, "m1", t0.Add(time.Hour)))
	}
	l := New(s, WithPublisher(f.publisher))

	outcome, err := l.CastVote(ctx, "m1", "u1", "home", f.candidates())

	assert.ErrorIs(t, err, ErrContextClosed)
	assert.Empty(t, outcome.Status)
	votes, err := f.mem.ListVotes(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, votes, "no vote may land in a closed context")
	assert.Zero(t, f.publisher.count())
}

func TestCastVote_CloseWaitsForCriticalSection(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	closed := make(chan struct{})
	var closeErr error
	var once sync.Once
	s := &closingStore{Memory: f.mem}
	s.duringRead = func() {
		once.Do(func() {
			go func() {
				closeErr = f.mem.CloseContext(ctx, "m1", t0.Add(time.Hour))
				close(closed)
			}()
			select {
			case <-closed:
				t.Error("CloseContext finished while a vote was being written")
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
	l := New(s, WithPublisher(f.publisher))

	outcome, err := l.CastVote(ctx, "m1", "u1", "home", f.candidates())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCast, outcome.Status)
	<-closed
	require.NoError(t, closeErr)

	// The vote belongs to the final result; anything after the close is rejected
	votes, err := f.mem.ListVotes(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, votes, 1)

	_, err = l.CastVote(ctx, "m1", "u1", "home", f.candidates())
	assert.ErrorIs(t, err, ErrContextClosed)
	votes, err = f.mem.ListVotes(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestCastVote_ConcurrentDifferentVoters(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	const voters = 40
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			candidate := "home"
			if i%4 == 0 {
				candidate = "away"
			}
			_, err := f.ledger.CastVote(ctx, "m1", "voter-"+string(rune('A'+i)), candidate, f.candidates())
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	votes, err := f.mem.ListVotes(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, votes, voters)
	assert.Equal(t, voters, f.publisher.count())
}

func TestCurrentVote_RequiresVoter(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.ledger.CurrentVote(context.Background(), "m1", "")

	assert.ErrorIs(t, err, ErrUnauthenticated)
}
