package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jordiqui/nnue-gauntlet/pkg/config"
	"github.com/jordiqui/nnue-gauntlet/pkg/matchtool"
)

func runCheckCommand(args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file to validate")
	parseLog := fs.String("parse-log", "", "parse a stored match log and print the outcome")
	baseline := fs.String("baseline-name", baselineName, "participant name used to orient the parsed score")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *parseLog != "" {
		return checkParseLog(os.Stdout, *parseLog, *baseline)
	}
	if *configPath == "" {
		return errors.New("usage: nnue-gauntlet check --config <path> | --parse-log <file>")
	}
	return checkConfig(os.Stdout, *configPath)
}

func checkConfig(w io.Writer, path string) error {
	fmt.Fprintf(w, "Checking gauntlet configuration %s...\n", path)
	fmt.Fprintln(w)

	cfg, err := config.Load(path)
	if err != nil {
		return withExitCode(err, 2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		return withExitCode(err, 2)
	}

	fmt.Fprintln(w, "Paths:")
	problems := 0
	problems += checkExecutable(w, "Match tool", cfg.ToolPath)
	problems += checkExecutable(w, "Engine", cfg.EnginePath)
	problems += checkFile(w, "Baseline network", cfg.BaselinePath)
	problems += checkDir(w, "Validated dir", cfg.ValidatedDir)
	if _, err := os.Stat(cfg.DeployPath); err == nil {
		fmt.Fprintf(w, "  ✓ Deploy slot:      %s\n", cfg.DeployPath)
	} else {
		fmt.Fprintf(w, "  - Deploy slot:      %s (created on first promotion)\n", cfg.DeployPath)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Match settings:")
	fmt.Fprintf(w, "  tool:        %s\n", cfg.Tool)
	fmt.Fprintf(w, "  rounds:      %d\n", cfg.Rounds)
	fmt.Fprintf(w, "  concurrency: %d\n", cfg.Concurrency)
	fmt.Fprintf(w, "  tc:          %s\n", cfg.TimeControl)
	fmt.Fprintf(w, "  threshold:   %g\n", cfg.Threshold)
	fmt.Fprintln(w)

	if problems > 0 {
		fmt.Fprintf(w, "✗ %d problem(s) found\n", problems)
		return withExitCode(fmt.Errorf("%d configuration problems", problems), 2)
	}
	fmt.Fprintln(w, "✓ Configuration is valid")
	return nil
}

func checkExecutable(w io.Writer, label, path string) int {
	if _, err := exec.LookPath(path); err == nil {
		fmt.Fprintf(w, "  ✓ %-17s %s\n", label+":", path)
		return 0
	}
	fmt.Fprintf(w, "  ✗ %-17s %s (not executable)\n", label+":", path)
	return 1
}

func checkFile(w io.Writer, label, path string) int {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		fmt.Fprintf(w, "  ✓ %-17s %s\n", label+":", path)
		return 0
	}
	fmt.Fprintf(w, "  ✗ %-17s %s (not found)\n", label+":", path)
	return 1
}

func checkDir(w io.Writer, label, path string) int {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		fmt.Fprintf(w, "  ✓ %-17s %s\n", label+":", path)
		return 0
	}
	fmt.Fprintf(w, "  ✗ %-17s %s (not found)\n", label+":", path)
	return 1
}

// checkParseLog replays the summary grammars over a stored match log. Handy
// when a tool upgrade changes its output format.
func checkParseLog(w io.Writer, path, baseline string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read match log: %w", err)
	}
	outcome, err := matchtool.ParseOutcome(string(data), baseline)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Parsed %s:\n", filepath.Base(path))
	fmt.Fprintf(w, "  Wins (baseline):  %g\n", outcome.WinsBaseline)
	fmt.Fprintf(w, "  Wins (candidate): %g\n", outcome.WinsCandidate)
	fmt.Fprintf(w, "  Draws:            %g\n", outcome.Draws)
	fmt.Fprintf(w, "  Points:           %g - %g\n", outcome.PointsBaseline, outcome.PointsCandidate)
	fmt.Fprintf(w, "  Margin:           %+g\n", outcome.Margin())
	return nil
}
