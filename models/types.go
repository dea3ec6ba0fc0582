// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// ContextKind says what a vote context decides on
type ContextKind string

const (
	KindMatch  ContextKind = "match"
	KindSeason ContextKind = "season"
)

// Valid reports whether k is a known context kind
func (k ContextKind) Valid() bool {
	return k == KindMatch || k == KindSeason
}

// Vote outcome statuses
const (
	StatusCast      = "cast"
	StatusSwitched  = "switched"
	StatusRetracted = "retracted"
)

// Domain types

// VoteContext is the scope of one vote decision (a match, or a season)
type VoteContext struct {
	ID        string      `json:"id"`
	Kind      ContextKind `json:"kind"`
	Title     string      `json:"title"`
	IsOpen    bool        `json:"is_open"`
	CreatedAt time.Time   `json:"created_at"`
	ClosedAt  *time.Time  `json:"closed_at,omitempty"`
}

// Candidate is a votable team or player. Metadata is opaque to the engine.
type Candidate struct {
	ID          string            `json:"id"`
	ContextID   string            `json:"context_id"`
	DisplayName string            `json:"display_name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// VoteRecord is one voter's current vote within one context.
// At most one exists per (ContextID, VoterID).
type VoteRecord struct {
	ContextID   string    `json:"context_id"`
	VoterID     string    `json:"-"` // Never expose in JSON
	CandidateID string    `json:"candidate_id"`
	CastAt      time.Time `json:"cast_at"`
}

// VoteOutcome describes what a cast did to the voter's record
type VoteOutcome struct {
	Status      string `json:"status"`
	CandidateID string `json:"candidate_id,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
}

// Tally is the sparse per-candidate vote count of a context. It is derived
// from the current vote records and never stored.
type Tally struct {
	ContextID   string               `json:"context_id"`
	Counts      map[string]int       `json:"counts"`
	TotalVotes  int                  `json:"total_votes"`
	FirstVoteAt map[string]time.Time `json:"-"`
}

// Sum adds up the per-candidate counts
func (t Tally) Sum() int {
	sum := 0
	for _, n := range t.Counts {
		sum += n
	}
	return sum
}

// LeaderboardEntry is one ranked row of a leaderboard
type LeaderboardEntry struct {
	CandidateID    string  `json:"candidate_id"`
	DisplayName    string  `json:"display_name"`
	TotalVotes     int     `json:"total_votes"`
	UniqueVoters   int     `json:"unique_voters"`
	VotePercentage float64 `json:"vote_percentage"`
	Rank           int     `json:"rank"` // 1-indexed, never shared
}

// Request types

type CreateContextRequest struct {
	Kind  ContextKind `json:"kind"`
	Title string      `json:"title"`
}

type AddCandidateRequest struct {
	DisplayName string            `json:"display_name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type LinkMatchRequest struct {
	MatchID string `json:"match_id"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// Response types

type CreateContextResponse struct {
	ContextID string `json:"context_id"`
	AdminKey  string `json:"admin_key"`
}

type AddCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type ContextWithCandidates struct {
	Context    VoteContext `json:"context"`
	Candidates []Candidate `json:"candidates"`
}

type CastVoteResponse struct {
	Outcome VoteOutcome `json:"outcome"`
	Message string      `json:"message"`
}

type MyVoteResponse struct {
	HasVoted    bool       `json:"has_voted"`
	CandidateID string     `json:"candidate_id,omitempty"`
	CastAt      *time.Time `json:"cast_at,omitempty"`
	CastAgo     string     `json:"cast_ago,omitempty"`
}

type LeaderboardResponse struct {
	ContextID  string             `json:"context_id"`
	TotalVotes int                `json:"total_votes"`
	Entries    []LeaderboardEntry `json:"entries"`
}

type CloseContextResponse struct {
	ClosedAt    time.Time           `json:"closed_at"`
	Leaderboard LeaderboardResponse `json:"leaderboard"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
