package telemetry

import (
	"testing"
	"time"
)

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	hub.Publish(NewEvent(EventCandidatePromoted, "/nets/cand-01.nnue"))

	select {
	case event := <-ch:
		if event.Type != EventCandidatePromoted {
			t.Errorf("Type = %s, want %s", event.Type, EventCandidatePromoted)
		}
		if event.Candidate != "/nets/cand-01.nnue" {
			t.Errorf("Candidate = %s, want /nets/cand-01.nnue", event.Candidate)
		}
		if event.Timestamp.IsZero() {
			t.Error("Timestamp was not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe()
	unsubscribe()

	hub.Publish(NewEvent(EventCycleStarted, ""))

	if _, open := <-ch; open {
		t.Error("channel still open after unsubscribe")
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, unsubscribe := hub.Subscribe()
	unsubscribe()
	unsubscribe()
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	// Fill an unread subscriber's buffer past capacity.
	hub.Subscribe()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(NewEvent(EventEvaluationStarted, "cand"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	hub := NewHub()
	hub.Close()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	if _, open := <-ch; open {
		t.Error("subscription on a closed hub should yield a closed channel")
	}

	// Publishing after close must be a no-op.
	hub.Publish(NewEvent(EventCycleStarted, ""))
	hub.Close()
}
