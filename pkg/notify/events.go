// Package notify pushes promotion results to external channels so nobody
// has to tail the orchestrator to learn a new network was deployed.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jordiqui/nnue-gauntlet/pkg/telemetry"
)

// EventType classifies a notification.
type EventType string

const (
	EventPromotion EventType = "promotion"
	EventFailure   EventType = "failure"
)

// Event is the payload delivered to every adapter.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"event"`
	Candidate   string    `json:"candidate"`
	Destination string    `json:"destination,omitempty"`
	Margin      float64   `json:"margin"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewPromotionEvent describes a candidate that entered the deployment slot.
func NewPromotionEvent(candidate, destination string, margin float64) *Event {
	return &Event{
		ID:          fmt.Sprintf("evt-%d", time.Now().UnixNano()),
		Type:        EventPromotion,
		Candidate:   candidate,
		Destination: destination,
		Margin:      margin,
		Timestamp:   time.Now().UTC(),
	}
}

// NewFailureEvent describes an evaluation that could not complete.
func NewFailureEvent(candidate, message string) *Event {
	return &Event{
		ID:        fmt.Sprintf("evt-%d", time.Now().UnixNano()),
		Type:      EventFailure,
		Candidate: candidate,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Adapter is a notification channel.
type Adapter interface {
	Name() string
	Send(ctx context.Context, event *Event) error
	Close() error
}

// Manager fans notifications out to all configured adapters.
type Manager struct {
	adapters        []Adapter
	includeFailures bool
}

// NewManager wires the adapters. When includeFailures is false only
// promotions are forwarded from the telemetry hub.
func NewManager(includeFailures bool, adapters ...Adapter) *Manager {
	return &Manager{adapters: adapters, includeFailures: includeFailures}
}

// Notify sends the event through every adapter and returns the last failure,
// if any. One broken channel must not silence the others.
func (m *Manager) Notify(ctx context.Context, event *Event) error {
	var lastErr error
	for _, adapter := range m.adapters {
		if err := adapter.Send(ctx, event); err != nil {
			lastErr = fmt.Errorf("%s: %w", adapter.Name(), err)
		}
	}
	return lastErr
}

// WatchHub forwards loop telemetry to the adapters until ctx ends. Delivery
// is best effort; a failed notification never disturbs the loop.
func (m *Manager) WatchHub(ctx context.Context, hub *telemetry.Hub) {
	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if notification := m.translate(event); notification != nil {
				m.Notify(ctx, notification)
			}
		}
	}
}

func (m *Manager) translate(event telemetry.Event) *Event {
	switch event.Type {
	case telemetry.EventCandidatePromoted:
		destination, _ := event.Data["destination"].(string)
		margin, _ := event.Data["margin"].(float64)
		return NewPromotionEvent(event.Candidate, destination, margin)
	case telemetry.EventRunFailed, telemetry.EventParseFailed:
		if !m.includeFailures {
			return nil
		}
		message, _ := event.Data["error"].(string)
		return NewFailureEvent(event.Candidate, message)
	default:
		return nil
	}
}

// Close shuts every adapter down, returning the last error.
func (m *Manager) Close() error {
	var lastErr error
	for _, adapter := range m.adapters {
		if err := adapter.Close(); err != nil {
			lastErr = fmt.Errorf("%s: %w", adapter.Name(), err)
		}
	}
	return lastErr
}
