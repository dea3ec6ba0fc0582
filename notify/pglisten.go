// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// PGListener relays PostgreSQL NOTIFY payloads (context IDs) into a Broker
type PGListener struct {
	listener *pq.Listener
	channel  string
	target   *Broker
}

// NewPGListener starts listening on channel. Run must be called to deliver
// notifications.
func NewPGListener(connStr, channel string, target *Broker) (*PGListener, error) {
	listener := pq.NewListener(connStr, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				slog.Warn("vote change listener event", "event", ev, "error", err)
			}
		})

	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	return &PGListener{listener: listener, channel: channel, target: target}, nil
}

// Run forwards notifications until ctx is done
func (l *PGListener) Run(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.listener.Close()

		case n := <-l.listener.Notify:
			if n == nil {
				// Connection was re-established; anything sent meanwhile is lost
				slog.Info("vote change listener reconnected", "channel", l.channel)
				l.target.PublishAll()
				continue
			}
			l.target.Publish(n.Extra)

		case <-ticker.C:
			if err := l.listener.Ping(); err != nil {
				slog.Warn("vote change listener ping failed", "error", err)
			}
		}
	}
}
