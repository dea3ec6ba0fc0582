// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import "sync"

type voteKey struct {
	contextID string
	voterID   string
}

type keyLock struct {
	sync.Mutex
	refs int
}

// keyedMutex serialises callers per (context, voter) and forgets keys nobody holds
type keyedMutex struct {
	mu    sync.Mutex
	locks map[voteKey]*keyLock
}

func (k *keyedMutex) lock(key voteKey) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[voteKey]*keyLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
