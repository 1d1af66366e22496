package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// Version information - set via ldflags during build
var (
	version   = "1.0.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if handled, exitCode := dispatchSubcommand(os.Args[1:]); handled {
		os.Exit(exitCode)
	}
	printHelp()
}

func dispatchSubcommand(args []string) (bool, int) {
	if len(args) == 0 {
		return false, 0
	}
	switch args[0] {
	case "--version", "-v", "version":
		printVersion()
		return true, 0
	case "--help", "-h", "help":
		printHelp()
		return true, 0
	case "run":
		return true, runCommand(runRunCommand, args[1:])
	case "history":
		return true, runCommand(runHistoryCommand, args[1:])
	case "check":
		return true, runCommand(runCheckCommand, args[1:])
	case "fetch":
		return true, runCommand(runFetchCommand, args[1:])
	default:
		if len(args[0]) > 0 && args[0][0] == '-' {
			fmt.Fprintf(os.Stderr, "Error: unknown flag: %s\n", args[0])
		} else {
			fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", args[0])
		}
		fmt.Fprintln(os.Stderr, "Run 'nnue-gauntlet --help' for usage.")
		return true, 1
	}
}

func runCommand(handler func([]string) error, args []string) int {
	if err := handler(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeForError(err)
	}
	return 0
}

func printHelp() {
	fmt.Println("NNUE Gauntlet - Candidate Network Promotion Orchestrator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  nnue-gauntlet [COMMAND] [FLAGS]")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  run                              Evaluate candidate networks against the baseline")
	fmt.Println("  history list [--limit n]         Show recorded evaluations (newest first)")
	fmt.Println("  history show <id>                Print one evaluation record as JSON")
	fmt.Println("  check --config <path>            Validate a configuration file")
	fmt.Println("  check --parse-log <file>         Parse a stored match log and print the outcome")
	fmt.Println("  fetch [names...]                 Download known reference networks")
	fmt.Println("  version                          Show version information")
	fmt.Println()
	fmt.Println("RUN FLAGS:")
	fmt.Println("  --config <path>                  YAML configuration file")
	fmt.Println("  --tool cutechess|fastchess       Match tool grammar (default cutechess)")
	fmt.Println("  --tool-path <path>               Match tool executable")
	fmt.Println("  --engine <path>                  UCI engine executable")
	fmt.Println("  --baseline-network <path>        Baseline network file")
	fmt.Println("  --validated-dir <path>           Directory scanned for candidate networks")
	fmt.Println("  --deploy-path <path>             Deployment slot for promoted networks")
	fmt.Println("  --rounds <n>                     Rounds per evaluation (default 100)")
	fmt.Println("  --concurrency <n>                Concurrent games (default 2)")
	fmt.Println("  --time-control <tc>              Time control (default 40/5+0.1)")
	fmt.Println("  --threads <n>                    Engine threads per side (default 1)")
	fmt.Println("  --opening <path>                 Opening book for match variety")
	fmt.Println("  --draw-moves <n>                 Draw adjudication move count")
	fmt.Println("  --resign-moves <n>               Resign adjudication move count")
	fmt.Println("  --pattern <glob>                 Candidate filename pattern (default *.nnue)")
	fmt.Println("  --history <path>                 History document path (default gauntlet/history.json)")
	fmt.Println("  --log-dir <path>                 Raw match log directory (default alongside history)")
	fmt.Println("  --interval <dur>                 Rescan interval; 0 runs once (default 0)")
	fmt.Println("  --watch                          Rescan when the candidate directory changes")
	fmt.Println("  --promotion-threshold <pts>      Points margin a candidate must exceed (default 0.5)")
	fmt.Println("  --status-addr <host:port>        Serve the status API and metrics")
	fmt.Println("  --webhook-url <url>              POST promotion events to this URL")
	fmt.Println("  --webhook-on-failure             Also POST evaluation failures")
	fmt.Println("  --extra-arg <arg>                Extra match tool argument (repeatable)")
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  GAUNTLET_TOOL                    Override the match tool")
	fmt.Println("  GAUNTLET_HISTORY                 Override the history document path")
	fmt.Println("  GAUNTLET_INTERVAL                Override the rescan interval")
	fmt.Println("  GAUNTLET_WATCH                   Enable directory watching (1/true/yes/on)")
	fmt.Println("  GAUNTLET_STATUS_ADDR             Override the status bind address")
	fmt.Println("  GAUNTLET_WEBHOOK_URL             Override the webhook URL")
	fmt.Println("  GAUNTLET_LOG_LEVEL               Log level (debug|info|warn|error)")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("  Settings layer as defaults < file < environment < flags.")
	fmt.Println("  Run 'nnue-gauntlet check --config gauntlet.yaml' to validate your setup")
}

func printVersion() {
	fmt.Printf("nnue-gauntlet %s\n", version)
	if commit != "unknown" {
		fmt.Printf("  Commit:     %s\n", commit)
	}
	if buildDate != "unknown" {
		fmt.Printf("  Built:      %s\n", buildDate)
	}
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

type exitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitError) Unwrap() error {
	return e.err
}

func (e exitError) ExitCode() int {
	if e.code == 0 {
		return 1
	}
	return e.code
}

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return exitError{code: code, err: err}
}

func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return 1
}
