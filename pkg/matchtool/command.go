package matchtool

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Params describes one gauntlet match between the baseline network and a
// single candidate. Paths are passed through to the tool verbatim.
type Params struct {
	ToolPath     string
	EnginePath   string
	BaselineName string
	Baseline     string
	Candidate    string
	Rounds       int
	Concurrency  int
	TimeControl  string
	Threads      int
	OpeningBook  string
	DrawMoves    int
	ResignMoves  int
	ExtraArgs    []string
}

// CandidateName derives the participant name the tool reports for a
// candidate: the file name with its extension removed.
func CandidateName(candidatePath string) string {
	base := filepath.Base(candidatePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BuildCommand assembles the full argv for the selected backend. The first
// element is the tool path and the result is ready for exec.
func BuildCommand(tool Tool, p Params) ([]string, error) {
	baselineName := p.BaselineName
	if baselineName == "" {
		baselineName = "baseline"
	}
	candidateName := CandidateName(p.Candidate)
	threads := strconv.Itoa(p.Threads)
	rounds := strconv.Itoa(p.Rounds)

	var cmd []string
	switch tool {
	case ToolCutechess:
		cmd = []string{
			p.ToolPath,
			"-repeat",
			"-rounds", rounds,
			"-tournament", "gauntlet",
		}
		if p.Concurrency > 0 {
			cmd = append(cmd, "-concurrency", strconv.Itoa(p.Concurrency))
		}
		cmd = append(cmd,
			"-engine",
			"name="+baselineName,
			"cmd="+p.EnginePath,
			"option.EvalFile="+p.Baseline,
			"option.Threads="+threads,
		)
		cmd = append(cmd,
			"-engine",
			"name="+candidateName,
			"cmd="+p.EnginePath,
			"option.EvalFile="+p.Candidate,
			"option.Threads="+threads,
		)
		cmd = append(cmd, "-games", rounds)
		if p.TimeControl != "" {
			cmd = append(cmd, "-each", "tc="+p.TimeControl, "timemargin=0")
		}
		if p.OpeningBook != "" {
			cmd = append(cmd, "-openings", "file="+p.OpeningBook, "order=random")
		}
		if p.DrawMoves > 0 {
			cmd = append(cmd, "-draw", "movenumber="+strconv.Itoa(p.DrawMoves), "movecount=2", "score=5")
		}
		if p.ResignMoves > 0 {
			cmd = append(cmd, "-resign", "movecount="+strconv.Itoa(p.ResignMoves), "score=400")
		}

	case ToolFastchess:
		concurrency := p.Concurrency
		if concurrency <= 0 {
			concurrency = 1
		}
		cmd = []string{
			p.ToolPath,
			"run",
			"--engine",
			"name=" + baselineName,
			"cmd=" + p.EnginePath,
			"option.EvalFile=" + p.Baseline,
			"option.Threads=" + threads,
			"--engine",
			"name=" + candidateName,
			"cmd=" + p.EnginePath,
			"option.EvalFile=" + p.Candidate,
			"option.Threads=" + threads,
			"--rounds", rounds,
			"--games", rounds,
			"--concurrency", strconv.Itoa(concurrency),
			"--time-control", p.TimeControl,
		}
		if p.OpeningBook != "" {
			cmd = append(cmd, "--opening-file", p.OpeningBook)
		}
		if p.DrawMoves > 0 {
			cmd = append(cmd, "--draw-moves", strconv.Itoa(p.DrawMoves))
		}
		if p.ResignMoves > 0 {
			cmd = append(cmd, "--adjudication-moves", strconv.Itoa(p.ResignMoves))
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTool, tool)
	}

	cmd = append(cmd, p.ExtraArgs...)
	return cmd, nil
}
