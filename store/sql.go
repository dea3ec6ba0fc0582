// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/models"
)

// Dialect selects the SQL flavour of the backing database
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DefaultNotifyChannel is the LISTEN/NOTIFY channel used for vote changes
const DefaultNotifyChannel = "vote_changes"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQL stores votes and contexts in PostgreSQL or SQLite.
//
// SQLite connections must be opened with _txlock=immediate so that
// WithVoterLock takes the write lock up front (see db.Open).
type SQL struct {
	db            *sql.DB
	dialect       Dialect
	notifyChannel string
}

type SQLOption func(*SQL)

// WithPGNotify makes every committed vote change emit pg_notify on channel,
// with the context ID as payload. Ignored for SQLite.
func WithPGNotify(channel string) SQLOption {
	return func(s *SQL) {
		s.notifyChannel = channel
	}
}

func NewSQL(db *sql.DB, dialect Dialect, opts ...SQLOption) *SQL {
	s := &SQL{db: db, dialect: dialect}
	for _, opt := range opts {
		opt(s)
	}
	if s.dialect != Postgres {
		s.notifyChannel = ""
	}
	return s
}

// sqlVotes runs vote queries against either the pool or a transaction
type sqlVotes struct {
	s       *SQL
	q       querier
	inTx    bool
	changed map[string]bool
}

func (s *SQL) votes() *sqlVotes {
	return &sqlVotes{s: s, q: s.db}
}

func (s *SQL) UpsertVote(ctx context.Context, contextID, voterID, candidateID string, castAt time.Time) error {
	return s.votes().UpsertVote(ctx, contextID, voterID, candidateID, castAt)
}

func (s *SQL) DeleteVote(ctx context.Context, contextID, voterID string) error {
	return s.votes().DeleteVote(ctx, contextID, voterID)
}

func (s *SQL) GetVote(ctx context.Context, contextID, voterID string) (*models.VoteRecord, error) {
	return s.votes().GetVote(ctx, contextID, voterID)
}

func (s *SQL) ListVotes(ctx context.Context, contextID string) ([]models.VoteRecord, error) {
	return s.votes().ListVotes(ctx, contextID)
}

// WithVoterLock runs fn inside a transaction holding a lock scoped to the
// voter: a transaction-level advisory lock on PostgreSQL, the database write
// lock on SQLite. On PostgreSQL, GetContext through the transaction also
// takes a share lock on the context row, so CloseContext waits for the commit.
func (s *SQL) WithVoterLock(ctx context.Context, contextID, voterID string, fn func(VoteStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.dialect == Postgres {
		_, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`, contextID, voterID)
		if err != nil {
			return fmt.Errorf("failed to lock voter: %w", err)
		}
	}

	v := &sqlVotes{s: s, q: tx, inTx: true, changed: make(map[string]bool)}
	if err := fn(v); err != nil {
		return err
	}

	for id := range v.changed {
		if err := s.notify(ctx, tx, id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQL) notify(ctx context.Context, q querier, contextID string) error {
	if s.notifyChannel == "" {
		return nil
	}
	if _, err := q.ExecContext(ctx, `SELECT pg_notify($1, $2)`, s.notifyChannel, contextID); err != nil {
		return fmt.Errorf("failed to notify vote change: %w", err)
	}
	return nil
}

func (v *sqlVotes) markChanged(ctx context.Context, contextID string) error {
	if v.inTx {
		v.changed[contextID] = true
		return nil
	}
	return v.s.notify(ctx, v.q, contextID)
}

func (v *sqlVotes) UpsertVote(ctx context.Context, contextID, voterID, candidateID string, castAt time.Time) error {
	_, err := v.q.ExecContext(ctx, `
		INSERT INTO vote_record (context_id, voter_id, candidate_id, cast_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (context_id, voter_id)
		DO UPDATE SET candidate_id = excluded.candidate_id, cast_at = excluded.cast_at
	`, contextID, voterID, candidateID, castAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return v.markChanged(ctx, contextID)
}

func (v *sqlVotes) DeleteVote(ctx context.Context, contextID, voterID string) error {
	_, err := v.q.ExecContext(ctx, `
		DELETE FROM vote_record WHERE context_id = $1 AND voter_id = $2
	`, contextID, voterID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return v.markChanged(ctx, contextID)
}

func (v *sqlVotes) GetVote(ctx context.Context, contextID, voterID string) (*models.VoteRecord, error) {
	rec := models.VoteRecord{ContextID: contextID, VoterID: voterID}
	err := v.q.QueryRowContext(ctx, `
		SELECT candidate_id, cast_at FROM vote_record
		WHERE context_id = $1 AND voter_id = $2
	`, contextID, voterID).Scan(&rec.CandidateID, &rec.CastAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	rec.CastAt = rec.CastAt.UTC()
	return &rec, nil
}

func (v *sqlVotes) ListVotes(ctx context.Context, contextID string) ([]models.VoteRecord, error) {
	rows, err := v.q.QueryContext(ctx, `
		SELECT voter_id, candidate_id, cast_at FROM vote_record
		WHERE context_id = $1
		ORDER BY cast_at, voter_id
	`, contextID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	records := []models.VoteRecord{}
	for rows.Next() {
		rec := models.VoteRecord{ContextID: contextID}
		if err := rows.Scan(&rec.VoterID, &rec.CandidateID, &rec.CastAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		rec.CastAt = rec.CastAt.UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (v *sqlVotes) GetContext(ctx context.Context, contextID string) (*models.VoteContext, error) {
	query := `
		SELECT id, kind, title, is_open, created_at, closed_at
		FROM vote_context
		WHERE id = $1
	`
	if v.inTx && v.s.dialect == Postgres {
		query += `FOR SHARE`
	}

	var vc models.VoteContext
	var kind string
	var closedAt sql.NullTime
	err := v.q.QueryRowContext(ctx, query, contextID).
		Scan(&vc.ID, &kind, &vc.Title, &vc.IsOpen, &vc.CreatedAt, &closedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContextNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query context: %w", err)
	}

	vc.Kind = models.ContextKind(kind)
	vc.CreatedAt = vc.CreatedAt.UTC()
	if closedAt.Valid {
		t := closedAt.Time.UTC()
		vc.ClosedAt = &t
	}
	return &vc, nil
}

func (s *SQL) CreateContext(ctx context.Context, vc models.VoteContext) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO vote_context (id, kind, title, is_open, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, vc.ID, string(vc.Kind), vc.Title, vc.IsOpen, vc.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert context: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert context: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", vc.ID, ErrContextExists)
	}
	return nil
}

func (s *SQL) GetContext(ctx context.Context, contextID string) (*models.VoteContext, error) {
	return s.votes().GetContext(ctx, contextID)
}

func (s *SQL) CloseContext(ctx context.Context, contextID string, closedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE vote_context
		SET is_open = $1, closed_at = $2
		WHERE id = $3
	`, false, closedAt.UTC(), contextID)
	if err != nil {
		return fmt.Errorf("failed to close context: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to close context: %w", err)
	}
	if n == 0 {
		return ErrContextNotFound
	}
	return nil
}

func (s *SQL) AddCandidate(ctx context.Context, c models.Candidate) error {
	if _, err := s.GetContext(ctx, c.ContextID); err != nil {
		return err
	}

	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode candidate metadata: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO candidate (id, context_id, display_name, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (context_id, id) DO NOTHING
	`, c.ID, c.ContextID, c.DisplayName, string(metadata))
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", c.ID, ErrCandidateExists)
	}
	return nil
}

func (s *SQL) ListCandidates(ctx context.Context, contextID string) ([]models.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, context_id, display_name, metadata
		FROM candidate
		WHERE context_id = $1
		ORDER BY id
	`, contextID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		var metadata string
		if err := rows.Scan(&c.ID, &c.ContextID, &c.DisplayName, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if metadata != "" && metadata != "null" {
			if err := json.Unmarshal([]byte(metadata), &c.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode candidate metadata: %w", err)
			}
		}
		candidates = append(candidates, c)
	}

	return candidates, rows.Err()
}

func (s *SQL) LinkMatch(ctx context.Context, seasonID, matchID string) error {
	season, err := s.GetContext(ctx, seasonID)
	if err != nil {
		return err
	}
	match, err := s.GetContext(ctx, matchID)
	if err != nil {
		return err
	}
	if season.Kind != models.KindSeason || match.Kind != models.KindMatch {
		return ErrKindMismatch
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO season_match (season_id, match_id)
		VALUES ($1, $2)
		ON CONFLICT (season_id, match_id) DO NOTHING
	`, seasonID, matchID)
	if err != nil {
		return fmt.Errorf("failed to link match: %w", err)
	}
	return nil
}

func (s *SQL) ListSeasonMatches(ctx context.Context, seasonID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT match_id FROM season_match WHERE season_id = $1 ORDER BY match_id
	`, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season matches: %w", err)
	}
	defer rows.Close()

	var matchIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan season match: %w", err)
		}
		matchIDs = append(matchIDs, id)
	}

	return matchIDs, rows.Err()
}
