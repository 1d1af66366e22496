package discovery

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPattern matches the network artifacts the training pipeline emits.
const DefaultPattern = "*.nnue"

// Scanner enumerates candidate artifacts in a directory.
type Scanner struct {
	dir     string
	pattern string
}

// NewScanner returns a scanner over dir. An empty pattern falls back to
// DefaultPattern.
func NewScanner(dir, pattern string) *Scanner {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}
	return &Scanner{dir: dir, pattern: pattern}
}

// List returns matching paths in sorted order so repeated scans visit
// candidates deterministically.
func (s *Scanner) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, s.pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan candidates: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}
