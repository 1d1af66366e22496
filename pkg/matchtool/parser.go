package matchtool

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoSummary indicates that no known summary grammar matched the output.
var ErrNoSummary = errors.New("could not parse match summary from the orchestration output; ensure the runner prints standard score lines")

// Outcome is the normalized result of one match, always expressed from the
// baseline's perspective regardless of which grammar produced it.
type Outcome struct {
	WinsBaseline    float64 `json:"wins_baseline"`
	WinsCandidate   float64 `json:"wins_candidate"`
	Draws           float64 `json:"draws"`
	PointsBaseline  float64 `json:"points_baseline"`
	PointsCandidate float64 `json:"points_candidate"`
}

// Margin is the candidate's point advantage over the baseline.
func (o Outcome) Margin() float64 {
	return o.PointsCandidate - o.PointsBaseline
}

// summaryGrammar recognizes one of the score formats the tournament runners
// print. Grammars are tried in order and the first match wins.
type summaryGrammar struct {
	name    string
	pattern *regexp.Regexp
	extract func(match []string, baselineName string) (Outcome, error)
}

var summaryGrammars = []summaryGrammar{
	{
		// cutechess-cli: "Score of baseline vs cand-01: 10 - 4 - 6"
		name:    "score line",
		pattern: regexp.MustCompile(`Score of (.+?) vs (.+?):\s+(\d+) - (\d+) - (\d+)`),
		extract: extractScoreLine,
	},
	{
		// key-value summaries: "Wins=10, Draws=6, Losses=4"
		name:    "key-value",
		pattern: regexp.MustCompile(`Wins=(\d+),\s*Draws=(\d+),\s*Losses=(\d+)`),
		extract: extractKeyValue,
	},
	{
		// fastchess: "Final score: baseline 13.0 - 7.0 cand-01"
		name:    "final score",
		pattern: regexp.MustCompile(`Final score:\s*(.+?)\s+(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*(.+)`),
		extract: extractFinalScore,
	},
	{
		// bare triplet fallback: "Result: 10 - 4 - 6"
		name:    "result triplet",
		pattern: regexp.MustCompile(`Result:?\s*(\d+)\s*-\s*(\d+)\s*-\s*(\d+)`),
		extract: extractResultTriplet,
	},
}

// ParseOutcome scans free-form tool output for the first recognizable score
// summary. baselineName corrects perspective when a grammar reports
// participant names: only the score-line grammar carries names for both
// sides, so only it can be reoriented.
func ParseOutcome(output, baselineName string) (Outcome, error) {
	for _, g := range summaryGrammars {
		match := g.pattern.FindStringSubmatch(output)
		if match == nil {
			continue
		}
		outcome, err := g.extract(match, baselineName)
		if err != nil {
			return Outcome{}, fmt.Errorf("%s summary: %w", g.name, err)
		}
		return outcome, nil
	}
	return Outcome{}, ErrNoSummary
}

func extractScoreLine(match []string, baselineName string) (Outcome, error) {
	wins, err := parseCount(match[3])
	if err != nil {
		return Outcome{}, err
	}
	losses, err := parseCount(match[4])
	if err != nil {
		return Outcome{}, err
	}
	draws, err := parseCount(match[5])
	if err != nil {
		return Outcome{}, err
	}
	// The first named participant is assumed to own the first count. When the
	// baseline name does not appear in it, the tool listed the candidate
	// first, so the win counts trade places.
	first := strings.TrimSpace(match[1])
	if baselineName != "" && !strings.Contains(first, baselineName) {
		wins, losses = losses, wins
	}
	return outcomeFromCounts(wins, losses, draws), nil
}

func extractKeyValue(match []string, _ string) (Outcome, error) {
	wins, err := parseCount(match[1])
	if err != nil {
		return Outcome{}, err
	}
	draws, err := parseCount(match[2])
	if err != nil {
		return Outcome{}, err
	}
	losses, err := parseCount(match[3])
	if err != nil {
		return Outcome{}, err
	}
	return outcomeFromCounts(wins, losses, draws), nil
}

func extractFinalScore(match []string, _ string) (Outcome, error) {
	pointsBaseline, err := parseCount(match[2])
	if err != nil {
		return Outcome{}, err
	}
	pointsCandidate, err := parseCount(match[3])
	if err != nil {
		return Outcome{}, err
	}
	// Point totals arrive pre-computed here. Win counts are not recoverable
	// from them, so the totals stand in for the counts and draws stay zero.
	return Outcome{
		WinsBaseline:    pointsBaseline,
		WinsCandidate:   pointsCandidate,
		Draws:           0,
		PointsBaseline:  pointsBaseline,
		PointsCandidate: pointsCandidate,
	}, nil
}

func extractResultTriplet(match []string, _ string) (Outcome, error) {
	wins, err := parseCount(match[1])
	if err != nil {
		return Outcome{}, err
	}
	losses, err := parseCount(match[2])
	if err != nil {
		return Outcome{}, err
	}
	draws, err := parseCount(match[3])
	if err != nil {
		return Outcome{}, err
	}
	return outcomeFromCounts(wins, losses, draws), nil
}

func outcomeFromCounts(wins, losses, draws float64) Outcome {
	return Outcome{
		WinsBaseline:    wins,
		WinsCandidate:   losses,
		Draws:           draws,
		PointsBaseline:  wins + draws*0.5,
		PointsCandidate: losses + draws*0.5,
	}
}

func parseCount(raw string) (float64, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q: %w", raw, err)
	}
	return value, nil
}
