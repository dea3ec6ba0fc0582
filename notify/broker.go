// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultMaxSubscriptions bounds the number of live subscriptions
const DefaultMaxSubscriptions = 1024

// Broker fans notifications out to in-process subscribers
type Broker struct {
	sync.RWMutex
	subs             map[string]map[string]*subscription // context -> subscription ID -> sub
	numSubscriptions int
	maxSubscriptions int
	closed           bool
	wg               sync.WaitGroup
}

type subscription struct {
	id        string
	contextID string
	wake      chan struct{} // 1-slot: a pending wake-up already means "re-read"
	done      chan struct{}
	stopOnce  sync.Once
}

func NewBroker(maxSubscriptions int) *Broker {
	if maxSubscriptions <= 0 {
		maxSubscriptions = DefaultMaxSubscriptions
	}
	return &Broker{
		subs:             make(map[string]map[string]*subscription),
		maxSubscriptions: maxSubscriptions,
	}
}

// Subscribe calls fn after every Publish for contextID until cancel is called
// or the broker is closed
func (b *Broker) Subscribe(contextID string, fn func()) (cancel func(), err error) {
	b.Lock()
	defer b.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}
	if b.numSubscriptions >= b.maxSubscriptions {
		return nil, ErrQuotaExceeded
	}

	sub := &subscription{
		id:        uuid.NewString(),
		contextID: contextID,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	if b.subs[contextID] == nil {
		b.subs[contextID] = make(map[string]*subscription)
	}
	b.subs[contextID][sub.id] = sub
	b.numSubscriptions++

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-sub.done:
				return
			case <-sub.wake:
				fn()
			}
		}
	}()

	return func() { b.unsubscribe(sub) }, nil
}

func (b *Broker) unsubscribe(sub *subscription) {
	b.Lock()
	defer b.Unlock()
	b.removeLocked(sub)
}

func (b *Broker) removeLocked(sub *subscription) {
	sub.stopOnce.Do(func() {
		close(sub.done)
		delete(b.subs[sub.contextID], sub.id)
		if len(b.subs[sub.contextID]) == 0 {
			delete(b.subs, sub.contextID)
		}
		b.numSubscriptions--
	})
}

// Publish wakes every subscriber of contextID. It never blocks.
func (b *Broker) Publish(contextID string) {
	b.RLock()
	defer b.RUnlock()

	for _, sub := range b.subs[contextID] {
		select {
		case sub.wake <- struct{}{}:
		default:
		}
	}
}

// PublishAll wakes every subscriber, e.g. after the upstream feed reconnected
// and notifications may have been lost
func (b *Broker) PublishAll() {
	b.RLock()
	defer b.RUnlock()

	for _, byID := range b.subs {
		for _, sub := range byID {
			select {
			case sub.wake <- struct{}{}:
			default:
			}
		}
	}
}

// Close cancels all subscriptions and waits for running callbacks to return
func (b *Broker) Close() {
	b.Lock()
	b.closed = true
	for _, byID := range b.subs {
		for _, sub := range byID {
			b.removeLocked(sub)
		}
	}
	b.Unlock()

	b.wg.Wait()
}

// NumSubscriptions counts live subscriptions across all contexts
func (b *Broker) NumSubscriptions() int {
	b.RLock()
	defer b.RUnlock()
	return b.numSubscriptions
}

// NumContextSubscriptions counts live subscriptions for one context
func (b *Broker) NumContextSubscriptions(contextID string) int {
	b.RLock()
	defer b.RUnlock()
	return len(b.subs[contextID])
}
