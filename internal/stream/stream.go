// Package stream fans entity lifecycle events out to SSE subscribers.
// The organization.created event doubles as the provisioning signal an
// external listener consumes to create a default project.
package stream

import (
	"context"
	"sync"
	"time"
)

// Event types published by the API layer.
const (
	EventOrganizationCreated = "organization.created"
	EventOrganizationUpdated = "organization.updated"
	EventOrganizationDeleted = "organization.deleted"
	EventProjectCreated      = "project.created"
	EventProjectUpdated      = "project.updated"
	EventProjectDeleted      = "project.deleted"
	EventStaffCreated        = "staff.created"
	EventStaffUpdated        = "staff.updated"
	EventStaffDeleted        = "staff.deleted"
	EventSubmissionCreated   = "submission.created"
	EventSubmissionUpdated   = "submission.updated"
)

// EntityEvent describes a single entity mutation.
type EntityEvent struct {
	Type      string    `json:"type"`
	EntityID  string    `json:"entity_id"`
	Actor     string    `json:"actor,omitempty"`
	Fields    any       `json:"fields,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fan-outs entity events to all active subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]chan EntityEvent
	next int
}

// New initialises an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[int]chan EntityEvent)}
}

// Subscribe registers a subscriber and returns a channel which will
// receive events. The channel is closed when the provided context ends.
func (h *Hub) Subscribe(ctx context.Context) <-chan EntityEvent {
	ch := make(chan EntityEvent, 16)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the event to all subscribers.
func (h *Hub) Publish(evt EntityEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
