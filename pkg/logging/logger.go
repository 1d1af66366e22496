package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Level controls which events reach the log files.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// Category groups events by the subsystem that produced them.
type Category string

const (
	CategoryDiscovery Category = "discovery"
	CategoryMatch     Category = "match"
	CategoryParse     Category = "parse"
	CategoryPromotion Category = "promotion"
	CategoryHistory   Category = "history"
	CategoryWatch     Category = "watch"
	CategoryStatus    Category = "status"
	CategoryNotify    Category = "notify"
	CategoryFetch     Category = "fetch"
)

// Event is one structured log line.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Category  Category       `json:"category"`
	Message   string         `json:"message"`
	RunID     string         `json:"run_id,omitempty"`
	Candidate string         `json:"candidate,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Logger appends JSONL events under a base directory: every event goes to
// events.jsonl and warnings or worse are mirrored to errors.jsonl.
type Logger struct {
	mu       sync.Mutex
	events   *os.File
	errors   *os.File
	minLevel Level
	runID    string
}

// NewLogger opens (or creates) the log files under baseDir.
func NewLogger(baseDir string, minLevel Level) (*Logger, error) {
	if _, ok := levelRank[minLevel]; !ok {
		minLevel = LevelInfo
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	events, err := os.OpenFile(filepath.Join(baseDir, "events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open events log: %w", err)
	}
	errorsFile, err := os.OpenFile(filepath.Join(baseDir, "errors.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		events.Close()
		return nil, fmt.Errorf("failed to open errors log: %w", err)
	}
	return &Logger{
		events:   events,
		errors:   errorsFile,
		minLevel: minLevel,
		runID:    ulid.Make().String(),
	}, nil
}

// RunID identifies this process's lines across both files.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Log writes one event. A nil logger discards everything so callers never
// need to guard their log sites.
func (l *Logger) Log(event Event) {
	if l == nil {
		return
	}
	if levelRank[event.Level] < levelRank[l.minLevel] {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.RunID = l.runID

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	line := append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events.Write(line)
	if levelRank[event.Level] >= levelRank[LevelWarn] {
		l.errors.Write(line)
	}
}

func (l *Logger) Debug(category Category, message string, details map[string]any) {
	l.Log(Event{Level: LevelDebug, Category: category, Message: message, Details: details})
}

func (l *Logger) Info(category Category, message string, details map[string]any) {
	l.Log(Event{Level: LevelInfo, Category: category, Message: message, Details: details})
}

func (l *Logger) Warn(category Category, message string, details map[string]any) {
	l.Log(Event{Level: LevelWarn, Category: category, Message: message, Details: details})
}

func (l *Logger) Error(category Category, message string, details map[string]any) {
	l.Log(Event{Level: LevelError, Category: category, Message: message, Details: details})
}

// Close flushes and closes both files.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if err := l.events.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := l.errors.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close log files: %v", errs)
	}
	return nil
}
