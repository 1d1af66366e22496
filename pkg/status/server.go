package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jordiqui/nnue-gauntlet/pkg/history"
	"github.com/jordiqui/nnue-gauntlet/pkg/logging"
	"github.com/jordiqui/nnue-gauntlet/pkg/telemetry"
)

const (
	maxRecentEvents     = 100
	defaultHistoryLimit = 50
)

// Config holds the HTTP server settings.
type Config struct {
	BindAddress string
	Version     string
}

// Server exposes the orchestrator's state for dashboards and probes:
// liveness, run statistics, the evaluation history and a live event feed.
type Server struct {
	cfg       Config
	store     *history.Store
	hub       *telemetry.Hub
	logger    *logging.Logger
	startedAt time.Time

	mu        sync.RWMutex
	recent    []telemetry.Event
	cycles    int
	lastCycle time.Time

	httpServer *http.Server
}

// NewServer wires the read-only HTTP surface over the given store and hub.
func NewServer(cfg Config, store *history.Store, hub *telemetry.Hub, logger *logging.Logger) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		hub:       hub,
		logger:    logger,
		startedAt: time.Now(),
	}
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()
	router.Get("/healthz", s.handleHealthz)
	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
		r.Get("/events", s.handleEvents)
	})
	return router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.hub != nil {
		events, unsubscribe := s.hub.Subscribe()
		defer unsubscribe()
		go s.collectEvents(events)
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.BindAddress,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info(logging.CategoryStatus, "status server listening", map[string]any{
			"addr": s.cfg.BindAddress,
		})
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (s *Server) collectEvents(events <-chan telemetry.Event) {
	for event := range events {
		s.mu.Lock()
		s.recent = append(s.recent, event)
		if len(s.recent) > maxRecentEvents {
			s.recent = s.recent[len(s.recent)-maxRecentEvents:]
		}
		if event.Type == telemetry.EventCycleCompleted {
			s.cycles++
			s.lastCycle = event.Timestamp
		}
		s.mu.Unlock()
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	total, promoted := s.store.Stats()

	s.mu.RLock()
	cycles := s.cycles
	lastCycle := s.lastCycle
	s.mu.RUnlock()

	payload := map[string]any{
		"status":         "ok",
		"version":        s.cfg.Version,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"evaluations":    total,
		"promotions":     promoted,
		"cycles":         cycles,
		"history_path":   s.store.Path(),
	}
	if !lastCycle.IsZero() {
		payload["last_cycle"] = lastCycle.Format(time.RFC3339)
	}
	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records := s.store.Records()
	// Newest first.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if limit < len(records) {
		records = records[:limit]
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]telemetry.Event, len(s.recent))
	copy(events, s.recent)
	s.mu.RUnlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(events),
		"events": events,
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.Encode(payload)
}
