package telemetry

import (
	"sync"
	"time"
)

// EventType identifies what happened in the orchestration loop.
type EventType string

const (
	EventCycleStarted       EventType = "cycle.started"
	EventCycleCompleted     EventType = "cycle.completed"
	EventEvaluationStarted  EventType = "evaluation.started"
	EventEvaluationFinished EventType = "evaluation.finished"
	EventRunFailed          EventType = "evaluation.run_failed"
	EventParseFailed        EventType = "evaluation.parse_failed"
	EventCandidatePromoted  EventType = "candidate.promoted"
	EventCandidateRejected  EventType = "candidate.rejected"
)

// Event is one observation from the loop, safe to serialize for the status
// API and webhook payloads.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Candidate string         `json:"candidate,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType EventType, candidate string) Event {
	return Event{Type: eventType, Timestamp: time.Now().UTC(), Candidate: candidate}
}

// Hub fans events out to subscribers. Publishing never blocks the loop: slow
// subscribers lose events rather than stalling evaluations.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan Event]struct{})}
}

// Subscribe registers a buffered listener and returns it with an unsubscribe
// function. Subscribing to a closed hub yields a closed channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan Event, 64)
	h.subscribers[ch] = struct{}{}

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber that has buffer room.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			// Drop if the subscriber can't keep up; the loop must not stall.
		}
	}
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[chan Event]struct{})
}
