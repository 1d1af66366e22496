package gauntlet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jordiqui/nnue-gauntlet/pkg/history"
	"github.com/jordiqui/nnue-gauntlet/pkg/logging"
	"github.com/jordiqui/nnue-gauntlet/pkg/matchtool"
	"github.com/jordiqui/nnue-gauntlet/pkg/telemetry"
)

// MatchRunner executes one match between the baseline and a candidate.
type MatchRunner interface {
	Run(ctx context.Context, candidate string) (*matchtool.RunResult, error)
}

// CandidateLister enumerates candidate artifacts in scan order.
type CandidateLister interface {
	List() ([]string, error)
}

// Promoter installs a qualifying candidate and returns where it landed.
type Promoter interface {
	Promote(candidate string) (string, error)
}

// Config controls one orchestration run.
type Config struct {
	Tool         string
	BaselineName string
	BaselinePath string
	Rounds       int
	Threshold    float64
	Interval     time.Duration
}

// Dependencies bundles the loop's collaborators. Store, Runner, Scanner and
// Promoter are required; the rest default to sensible no-ops.
type Dependencies struct {
	Store     *history.Store
	Runner    MatchRunner
	Scanner   CandidateLister
	Promoter  Promoter
	Telemetry *telemetry.Hub
	Logger    *logging.Logger
	Wake      <-chan struct{}
	Stdout    io.Writer
	Stderr    io.Writer
}

// Orchestrator drives the evaluate, decide, promote, record cycle over every
// candidate the scanner discovers.
type Orchestrator struct {
	cfg  Config
	deps Dependencies
}

// New validates the wiring and returns an orchestrator.
func New(cfg Config, deps Dependencies) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("history store is required")
	}
	if deps.Runner == nil {
		return nil, errors.New("match runner is required")
	}
	if deps.Scanner == nil {
		return nil, errors.New("candidate scanner is required")
	}
	if deps.Promoter == nil {
		return nil, errors.New("promoter is required")
	}
	if cfg.Threshold < 0 {
		return nil, errors.New("promotion threshold must be non-negative")
	}
	if cfg.BaselineName == "" {
		cfg.BaselineName = "baseline"
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &Orchestrator{cfg: cfg, deps: deps}, nil
}

// Run scans for untested candidates and evaluates each in turn. With a
// positive interval (or a wake channel) it keeps rescanning; otherwise a
// single pass is made and the process is done. Per-candidate failures are
// reported and skipped so one broken artifact never blocks the rest; only
// persistence and promotion failures abort the run.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		o.publish(telemetry.NewEvent(telemetry.EventCycleStarted, ""))
		candidates, err := o.deps.Scanner.List()
		if err != nil {
			return fmt.Errorf("failed to discover candidates: %w", err)
		}

		fresh := make([]string, 0, len(candidates))
		for _, candidate := range candidates {
			if !o.deps.Store.Tested(candidate) {
				fresh = append(fresh, candidate)
			}
		}
		o.deps.Logger.Info(logging.CategoryDiscovery, "scan complete", map[string]any{
			"candidates": len(candidates),
			"fresh":      len(fresh),
		})

		if len(fresh) == 0 && !o.continuous() {
			fmt.Fprintln(o.deps.Stdout, "No new candidate networks found. Exiting.")
			return nil
		}

		for _, candidate := range fresh {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := o.evaluate(ctx, candidate); err != nil {
				return err
			}
		}

		recordCycle()
		o.publish(telemetry.NewEvent(telemetry.EventCycleCompleted, ""))

		if !o.continuous() {
			return nil
		}
		if err := o.wait(ctx); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) continuous() bool {
	return o.cfg.Interval > 0 || o.deps.Wake != nil
}

func (o *Orchestrator) wait(ctx context.Context) error {
	var pending <-chan time.Time
	if o.cfg.Interval > 0 {
		fmt.Fprintf(o.deps.Stdout, "Sleeping for %s before rescanning candidates...\n", o.cfg.Interval)
		timer := time.NewTimer(o.cfg.Interval)
		defer timer.Stop()
		pending = timer.C
	}
	// A nil channel blocks forever, so whichever source is unconfigured
	// simply never fires.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-pending:
		return nil
	case <-o.deps.Wake:
		o.deps.Logger.Debug(logging.CategoryWatch, "woken by filesystem event", nil)
		return nil
	}
}

func (o *Orchestrator) evaluate(ctx context.Context, candidate string) error {
	fmt.Fprintf(o.deps.Stdout, "Evaluating candidate: %s\n", candidate)
	recordEvaluation()
	o.publish(telemetry.NewEvent(telemetry.EventEvaluationStarted, candidate))

	result, err := o.deps.Runner.Run(ctx, candidate)
	if err != nil {
		// A cancelled context killed the tool; that is shutdown, not a
		// verdict on the candidate.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		recordRunFailure()
		fmt.Fprintf(o.deps.Stderr, "Match runner failed for %s: %v\n", candidate, err)
		o.deps.Logger.Error(logging.CategoryMatch, "match runner failed", map[string]any{
			"candidate": candidate,
			"error":     err.Error(),
		})
		event := telemetry.NewEvent(telemetry.EventRunFailed, candidate)
		event.Data = map[string]any{"error": err.Error()}
		o.publish(event)
		return nil
	}

	outcome, err := matchtool.ParseOutcome(result.Output, o.cfg.BaselineName)
	if err != nil {
		recordParseFailure()
		fmt.Fprintf(o.deps.Stderr, "Could not parse match summary for %s: %v (raw log: %s)\n", candidate, err, result.LogPath)
		o.deps.Logger.Error(logging.CategoryParse, "unparseable match output", map[string]any{
			"candidate": candidate,
			"raw_log":   result.LogPath,
			"error":     err.Error(),
		})
		event := telemetry.NewEvent(telemetry.EventParseFailed, candidate)
		event.Data = map[string]any{"error": err.Error(), "raw_log": result.LogPath}
		o.publish(event)
		return nil
	}

	promoted := ShouldPromote(outcome, o.cfg.Threshold)
	var destination string
	if promoted {
		destination, err = o.deps.Promoter.Promote(candidate)
		if err != nil {
			return fmt.Errorf("failed to promote %s: %w", candidate, err)
		}
		recordPromotion()
		fmt.Fprintf(o.deps.Stdout, "Candidate %s promoted to %s\n", candidate, destination)
		o.deps.Logger.Info(logging.CategoryPromotion, "candidate promoted", map[string]any{
			"candidate":   candidate,
			"destination": destination,
			"margin":      outcome.Margin(),
		})
	} else {
		fmt.Fprintf(o.deps.Stdout, "Candidate %s did not meet the promotion threshold.\n", candidate)
		o.deps.Logger.Info(logging.CategoryPromotion, "candidate rejected", map[string]any{
			"candidate": candidate,
			"margin":    outcome.Margin(),
		})
	}

	record := history.Record{
		Timestamp:       time.Now().UTC(),
		Tool:            o.cfg.Tool,
		Baseline:        history.CanonicalPath(o.cfg.BaselinePath),
		Candidate:       history.CanonicalPath(candidate),
		Rounds:          o.cfg.Rounds,
		WinsBaseline:    outcome.WinsBaseline,
		WinsCandidate:   outcome.WinsCandidate,
		Draws:           outcome.Draws,
		PointsBaseline:  outcome.PointsBaseline,
		PointsCandidate: outcome.PointsCandidate,
		RawOutputPath:   history.CanonicalPath(result.LogPath),
		Promoted:        promoted,
	}
	if err := o.deps.Store.Append(record); err != nil {
		return fmt.Errorf("failed to record evaluation: %w", err)
	}

	if promoted {
		event := telemetry.NewEvent(telemetry.EventCandidatePromoted, candidate)
		event.Data = map[string]any{"destination": destination, "margin": outcome.Margin()}
		o.publish(event)
	} else {
		event := telemetry.NewEvent(telemetry.EventCandidateRejected, candidate)
		event.Data = map[string]any{"margin": outcome.Margin()}
		o.publish(event)
	}
	finished := telemetry.NewEvent(telemetry.EventEvaluationFinished, candidate)
	finished.Data = map[string]any{
		"margin":   outcome.Margin(),
		"promoted": promoted,
	}
	o.publish(finished)
	return nil
}

func (o *Orchestrator) publish(event telemetry.Event) {
	if o.deps.Telemetry != nil {
		o.deps.Telemetry.Publish(event)
	}
}
