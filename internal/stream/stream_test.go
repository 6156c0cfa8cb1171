package stream

import (
	"context"
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	hub := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := hub.Subscribe(ctx)
	hub.Publish(EntityEvent{Type: EventOrganizationCreated, EntityID: "org-1"})

	select {
	case evt := <-ch:
		if evt.Type != EventOrganizationCreated || evt.EntityID != "org-1" {
			t.Fatalf("unexpected event %+v", evt)
		}
		if evt.Timestamp.IsZero() {
			t.Fatal("publish must stamp the event")
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestCancelledSubscriberIsRemoved(t *testing.T) {
	hub := New()
	ctx, cancel := context.WithCancel(context.Background())
	hub.Subscribe(ctx)
	if hub.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Subscribers())
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber not removed after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub.Subscribe(ctx) // never drained
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(EntityEvent{Type: EventProjectUpdated, EntityID: "p-1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
