// Package events is an in-process fan-out bus for session lifecycle
// notifications. Subscribers get token issuance, revocation and expiry
// sweeps without coupling to the auth core.
package events

import (
	"context"
	"sync"
	"time"
)

// Type classifies a session lifecycle event.
type Type string

const (
	TokenIssued  Type = "token_issued"
	TokenReused  Type = "token_reused"
	TokenRevoked Type = "token_revoked"
	TokensSwept  Type = "tokens_swept"
)

// Event describes one session lifecycle change. It never carries the
// token value itself, only who it belonged to.
type Event struct {
	Type  Type      `json:"type"`
	Email string    `json:"email,omitempty"`
	Count int       `json:"count,omitempty"`
	At    time.Time `json:"at"`
}

// Bus fan-outs events to all active subscribers. Slow subscribers are
// skipped, not waited for.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber and returns its channel. The channel
// is closed when ctx ends.
func (b *Bus) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Publish delivers evt to every subscriber that can take it now.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Drop when the subscriber is slow to avoid blocking.
		}
	}
}
