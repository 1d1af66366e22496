package matchtool

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// logStampLayout keeps raw log names sortable and safe on any filesystem.
const logStampLayout = "20060102T150405.000"

// RunResult carries the merged output of one match and the log that
// preserves it.
type RunResult struct {
	Output  string
	LogPath string
}

// Runner executes matches for successive candidates with a fixed baseline
// and tool configuration.
type Runner struct {
	tool   Tool
	params Params
	logDir string
}

// NewRunner returns a runner that writes raw tool output under logDir. The
// Candidate field of params is filled per Run call.
func NewRunner(tool Tool, params Params, logDir string) *Runner {
	return &Runner{tool: tool, params: params, logDir: logDir}
}

// Run executes one match against the given candidate. Both output streams
// are captured together and persisted to a log file before the caller ever
// sees them, so evidence survives even when interpretation later fails. A
// non-zero tool exit is a hard failure and leaves no log behind.
func (r *Runner) Run(ctx context.Context, candidate string) (*RunResult, error) {
	params := r.params
	params.Candidate = candidate

	argv, err := BuildCommand(r.tool, params)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("match tool exited abnormally: %w\nOutput: %s", err, string(output))
	}

	logPath, err := r.writeLog(candidate, output)
	if err != nil {
		return nil, err
	}

	return &RunResult{Output: string(output), LogPath: logPath}, nil
}

func (r *Runner) writeLog(candidate string, output []byte) (string, error) {
	if err := os.MkdirAll(r.logDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	stamp := time.Now().UTC().Format(logStampLayout) + "Z"
	logPath := filepath.Join(r.logDir, fmt.Sprintf("%s_%s.log", CandidateName(candidate), stamp))
	if err := os.WriteFile(logPath, output, 0o644); err != nil {
		return "", fmt.Errorf("failed to write match log: %w", err)
	}
	return logPath, nil
}
