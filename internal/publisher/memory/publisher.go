// Package memory provides an in-process Publisher that records
// job-lifecycle events, used in tests and when no Pub/Sub project is
// configured.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// PublishedEvent is one recorded publish call: the topic and the
// job-lifecycle payload handed to Publish.
type PublishedEvent struct {
	Topic   string
	Payload any
}

// Publisher accumulates events instead of sending them anywhere.
type Publisher struct {
	mu     sync.RWMutex
	events []PublishedEvent
}

// New returns an empty in-process Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event and returns a synthetic message ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Topic: topic, Payload: payload})
	return fmt.Sprintf("local-%d", len(p.events)), nil
}

// Events returns a copy of everything published so far.
func (p *Publisher) Events() []PublishedEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}
