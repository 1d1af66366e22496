package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordiqui/nnue-gauntlet/pkg/history"
	"github.com/jordiqui/nnue-gauntlet/pkg/telemetry"
)

func newTestServer(t *testing.T) (*Server, *history.Store) {
	t.Helper()
	store := history.NewStore(filepath.Join(t.TempDir(), "history.json"))
	server := NewServer(Config{BindAddress: "127.0.0.1:0", Version: "test"}, store, nil, nil)
	return server, store
}

func seedRecords(t *testing.T, store *history.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := store.Append(history.Record{
			Timestamp:       time.Date(2026, 3, 1, 10, i, 0, 0, time.UTC),
			Tool:            "cutechess",
			Candidate:       filepath.Join("/nets", "cand", string(rune('a'+i))+".nnue"),
			PointsBaseline:  7,
			PointsCandidate: 13,
			Promoted:        i%2 == 0,
		})
		require.NoError(t, err)
	}
}

func doRequest(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	server.routes().ServeHTTP(recorder, req)
	return recorder
}

func TestServer_Healthz(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, server, "/healthz")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["time"])
}

func TestServer_Status(t *testing.T) {
	server, store := newTestServer(t)
	seedRecords(t, store, 3)

	resp := doRequest(t, server, "/api/status")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Status      string `json:"status"`
		Version     string `json:"version"`
		Evaluations int    `json:"evaluations"`
		Promotions  int    `json:"promotions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.Equal(t, 3, body.Evaluations)
	assert.Equal(t, 2, body.Promotions)
}

func TestServer_HistoryNewestFirst(t *testing.T) {
	server, store := newTestServer(t)
	seedRecords(t, store, 5)

	resp := doRequest(t, server, "/api/history?limit=2")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Count   int              `json:"count"`
		Records []history.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	require.Len(t, body.Records, 2)
	assert.True(t, body.Records[0].Timestamp.After(body.Records[1].Timestamp),
		"records should be newest first")
}

func TestServer_HistoryInvalidLimit(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, server, "/api/history?limit=bogus")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestServer_Events(t *testing.T) {
	store := history.NewStore(filepath.Join(t.TempDir(), "history.json"))
	hub := telemetry.NewHub()
	defer hub.Close()
	server := NewServer(Config{Version: "test"}, store, hub, nil)

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	go server.collectEvents(events)

	hub.Publish(telemetry.NewEvent(telemetry.EventCandidatePromoted, "/nets/cand-01.nnue"))

	require.Eventually(t, func() bool {
		resp := doRequest(t, server, "/api/events")
		var body struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			return false
		}
		return body.Count == 1
	}, 2*time.Second, 20*time.Millisecond, "published event should appear in the feed")
}

func TestServer_StatusTracksCycles(t *testing.T) {
	store := history.NewStore(filepath.Join(t.TempDir(), "history.json"))
	hub := telemetry.NewHub()
	defer hub.Close()
	server := NewServer(Config{Version: "test"}, store, hub, nil)

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	go server.collectEvents(events)

	hub.Publish(telemetry.NewEvent(telemetry.EventCycleStarted, ""))
	hub.Publish(telemetry.NewEvent(telemetry.EventCycleCompleted, ""))
	hub.Publish(telemetry.NewEvent(telemetry.EventCycleCompleted, ""))

	require.Eventually(t, func() bool {
		resp := doRequest(t, server, "/api/status")
		var body struct {
			Cycles    int    `json:"cycles"`
			LastCycle string `json:"last_cycle"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
			return false
		}
		return body.Cycles == 2 && body.LastCycle != ""
	}, 2*time.Second, 20*time.Millisecond, "completed cycles should appear in the status payload")
}

func TestServer_Metrics(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, server, "/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "# HELP")
}
