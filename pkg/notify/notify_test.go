package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jordiqui/nnue-gauntlet/pkg/telemetry"
)

type recordingAdapter struct {
	mu     sync.Mutex
	name   string
	events []*Event
	err    error
}

func (r *recordingAdapter) Name() string { return r.name }

func (r *recordingAdapter) Send(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingAdapter) Close() error { return nil }

func (r *recordingAdapter) received() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Event, len(r.events))
	copy(out, r.events)
	return out
}

func TestWebhookDeliversPayload(t *testing.T) {
	var got Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	adapter, err := NewWebhookAdapter(server.URL)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}

	event := NewPromotionEvent("/nets/cand-01.nnue", "/nets/best.nnue", 6)
	if err := adapter.Send(context.Background(), event); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	if got.Type != EventPromotion {
		t.Errorf("event = %s, want promotion", got.Type)
	}
	if got.Candidate != "/nets/cand-01.nnue" || got.Destination != "/nets/best.nnue" {
		t.Errorf("payload = %+v", got)
	}
	if got.Margin != 6 {
		t.Errorf("margin = %v, want 6", got.Margin)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp missing from payload")
	}
}

func TestWebhookErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter, err := NewWebhookAdapter(server.URL)
	if err != nil {
		t.Fatalf("failed to create adapter: %v", err)
	}

	err = adapter.Send(context.Background(), NewFailureEvent("cand", "exit status 7"))
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if want := "boom"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want it to carry %q", err.Error(), want)
	}
}

func TestNewWebhookAdapterRequiresURL(t *testing.T) {
	if _, err := NewWebhookAdapter("  "); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestManagerReturnsLastFailure(t *testing.T) {
	broken := &recordingAdapter{name: "broken", err: errors.New("unreachable")}
	healthy := &recordingAdapter{name: "healthy"}
	manager := NewManager(false, broken, healthy)

	err := manager.Notify(context.Background(), NewPromotionEvent("cand", "dest", 1))
	if err == nil {
		t.Fatal("expected error from the broken adapter")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error = %q, want adapter name", err.Error())
	}
	if len(healthy.received()) != 1 {
		t.Error("healthy adapter skipped after another adapter failed")
	}
}

func TestWatchHubForwardsPromotions(t *testing.T) {
	adapter := &recordingAdapter{name: "test"}
	manager := NewManager(false, adapter)
	hub := telemetry.NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		manager.WatchHub(ctx, hub)
		close(done)
	}()

	// Give the subscription a moment to register.
	time.Sleep(50 * time.Millisecond)

	promoted := telemetry.NewEvent(telemetry.EventCandidatePromoted, "/nets/cand-01.nnue")
	promoted.Data = map[string]any{"destination": "/nets/best.nnue", "margin": 6.0}
	hub.Publish(promoted)
	hub.Publish(telemetry.NewEvent(telemetry.EventCandidateRejected, "/nets/cand-02.nnue"))

	deadline := time.After(5 * time.Second)
	for len(adapter.received()) == 0 {
		select {
		case <-deadline:
			t.Fatal("promotion never reached the adapter")
		case <-time.After(10 * time.Millisecond):
		}
	}

	events := adapter.received()
	if len(events) != 1 {
		t.Fatalf("adapter received %d events, want only the promotion", len(events))
	}
	if events[0].Type != EventPromotion || events[0].Destination != "/nets/best.nnue" {
		t.Errorf("forwarded event = %+v", events[0])
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WatchHub did not stop on cancel")
	}
}

func TestWatchHubFailuresOnlyWhenEnabled(t *testing.T) {
	silent := &recordingAdapter{name: "silent"}
	loud := &recordingAdapter{name: "loud"}
	hub := telemetry.NewHub()
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewManager(false, silent).WatchHub(ctx, hub)
	go NewManager(true, loud).WatchHub(ctx, hub)

	time.Sleep(50 * time.Millisecond)
	failed := telemetry.NewEvent(telemetry.EventRunFailed, "/nets/cand-01.nnue")
	failed.Data = map[string]any{"error": "exit status 7"}
	hub.Publish(failed)

	deadline := time.After(5 * time.Second)
	for len(loud.received()) == 0 {
		select {
		case <-deadline:
			t.Fatal("failure never reached the failure-enabled adapter")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if events := loud.received(); events[0].Type != EventFailure || events[0].Message != "exit status 7" {
		t.Errorf("forwarded failure = %+v", events[0])
	}
	if len(silent.received()) != 0 {
		t.Error("failure forwarded despite includeFailures=false")
	}
}
