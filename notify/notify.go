// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package notify carries "votes of this context changed" signals from the
writers to whoever re-aggregates.

Notifications have no payload. A subscriber that is woken up must re-read the
full vote set of the context, so a missed or duplicated signal never leaves a
stale leaderboard behind for longer than the next signal.

Broker is the in-process implementation. PGListener bridges PostgreSQL
LISTEN/NOTIFY into a Broker so several server replicas see each other's votes.
*/
package notify

import "errors"

var (
	ErrQuotaExceeded = errors.New("subscription quota exceeded")
	ErrBrokerClosed  = errors.New("broker closed")
)

// Publisher signals that a context's votes changed.
// Publish must not block.
type Publisher interface {
	Publish(contextID string)
}

// Subscriber registers callbacks for a context. The callback runs on its own
// goroutine; bursts of Publish calls may be coalesced into one call.
type Subscriber interface {
	Subscribe(contextID string, fn func()) (cancel func(), err error)
}

// Nop discards every notification
type Nop struct{}

func (Nop) Publish(string) {}
