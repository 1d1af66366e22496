package discovery

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of filesystem events a single artifact
// copy produces into one wake signal.
const DefaultDebounce = 2 * time.Second

// Watcher signals the orchestration loop when candidate artifacts appear or
// change, instead of waiting out the rescan interval.
type Watcher struct {
	dir      string
	pattern  string
	debounce time.Duration
	wake     chan struct{}
}

// NewWatcher watches dir for files matching pattern. A non-positive debounce
// falls back to DefaultDebounce.
func NewWatcher(dir, pattern string, debounce time.Duration) *Watcher {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		pattern:  pattern,
		debounce: debounce,
		wake:     make(chan struct{}, 1),
	}
}

// Wake delivers at most one pending signal per debounce window.
func (w *Watcher) Wake() <-chan struct{} {
	return w.wake
}

// Watch blocks until ctx is done, forwarding debounced wake signals for
// matching create and write events.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	var timer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !matchesPattern(w.pattern, event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = timer.C
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-pending:
			timer = nil
			pending = nil
			select {
			case w.wake <- struct{}{}:
			default:
				// A wake is already queued; the next scan covers this event.
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("failed to watch %s: %w", w.dir, err)
		}
	}
}

// matchesPattern applies glob matching against the full path, falling back
// to the base name for patterns without a separator.
func matchesPattern(pattern, filePath string) bool {
	normalized := filepath.ToSlash(filePath)
	if matched, err := path.Match(pattern, normalized); err == nil && matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		base := path.Base(normalized)
		if matched, err := path.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
