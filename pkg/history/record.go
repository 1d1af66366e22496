package history

import (
	"path/filepath"
	"time"
)

// Record captures one completed candidate evaluation. Field names mirror the
// on-disk document, which older tooling reads directly.
type Record struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Tool            string    `json:"tool"`
	Baseline        string    `json:"baseline"`
	Candidate       string    `json:"candidate"`
	Rounds          int       `json:"rounds"`
	WinsBaseline    float64   `json:"wins_baseline"`
	WinsCandidate   float64   `json:"wins_candidate"`
	Draws           float64   `json:"draws"`
	PointsBaseline  float64   `json:"points_baseline"`
	PointsCandidate float64   `json:"points_candidate"`
	RawOutputPath   string    `json:"raw_output_path"`
	Promoted        bool      `json:"promoted"`
}

// Margin is the candidate's point advantage over the baseline.
func (r Record) Margin() float64 {
	return r.PointsCandidate - r.PointsBaseline
}

// CanonicalPath resolves a path to the absolute form used for tested-set
// membership. Discovery must resolve candidate paths the same way or
// previously evaluated artifacts would be re-run after the process restarts.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
