// Package events carries server-to-client broadcasts from the coordinators to
// the websocket hub, either in-process or across instances through NATS.
package events

import (
	"context"
	"sync"
)

// Event is one broadcast. Target selects a single connection, Users every
// connection of the listed users and Group the connections joined to a group.
// All empty means every connection.
type Event struct {
	Type    string `json:"type"`
	Group   string `json:"group,omitempty"`
	Target  string `json:"target,omitempty"`
	Users   []uint `json:"users,omitempty"`
	Payload any    `json:"payload"`
}

// Publisher sends events to whoever delivers them to clients.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Handler receives delivered events.
type Handler func(ev Event)

// Subscriber registers a handler for every delivered event.
type Subscriber interface {
	Subscribe(h Handler)
}

// Bus is a Publisher that also delivers to local subscribers.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// LocalBus delivers synchronously to subscribers in the publishing goroutine.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{}
}

func (b *LocalBus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *LocalBus) Publish(_ context.Context, ev Event) error {
	b.deliver(ev)
	return nil
}

func (b *LocalBus) deliver(ev Event) {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (b *LocalBus) Close() error { return nil }
