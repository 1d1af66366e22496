package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jordiqui/nnue-gauntlet/pkg/config"
	"github.com/jordiqui/nnue-gauntlet/pkg/discovery"
	"github.com/jordiqui/nnue-gauntlet/pkg/gauntlet"
	"github.com/jordiqui/nnue-gauntlet/pkg/history"
	"github.com/jordiqui/nnue-gauntlet/pkg/logging"
	"github.com/jordiqui/nnue-gauntlet/pkg/matchtool"
	"github.com/jordiqui/nnue-gauntlet/pkg/notify"
	"github.com/jordiqui/nnue-gauntlet/pkg/promote"
	"github.com/jordiqui/nnue-gauntlet/pkg/status"
	"github.com/jordiqui/nnue-gauntlet/pkg/telemetry"
)

// baselineName is the participant name the baseline engine plays under. The
// output parsers key on it to orient wins and losses.
const baselineName = "baseline"

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ", ")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

type runFlags struct {
	tool             string
	toolPath         string
	engine           string
	baseline         string
	validatedDir     string
	deployPath       string
	rounds           int
	concurrency      int
	timeControl      string
	threads          int
	opening          string
	drawMoves        int
	resignMoves      int
	pattern          string
	historyPath      string
	logDir           string
	interval         time.Duration
	threshold        float64
	watch            bool
	statusAddr       string
	webhookURL       string
	webhookOnFailure bool
	logLevel         string
	extraArgs        stringSliceFlag
}

func registerRunFlags(fs *flag.FlagSet, v *runFlags) {
	fs.StringVar(&v.tool, "tool", "", "match tool grammar: cutechess or fastchess")
	fs.StringVar(&v.toolPath, "tool-path", "", "match tool executable")
	fs.StringVar(&v.engine, "engine", "", "UCI engine executable")
	fs.StringVar(&v.baseline, "baseline-network", "", "baseline network file")
	fs.StringVar(&v.validatedDir, "validated-dir", "", "directory scanned for candidate networks")
	fs.StringVar(&v.deployPath, "deploy-path", "", "deployment slot for promoted networks")
	fs.IntVar(&v.rounds, "rounds", 0, "rounds per evaluation")
	fs.IntVar(&v.concurrency, "concurrency", 0, "concurrent games")
	fs.StringVar(&v.timeControl, "time-control", "", "time control passed to the tool")
	fs.IntVar(&v.threads, "threads", 0, "engine threads per side")
	fs.StringVar(&v.opening, "opening", "", "opening book for match variety")
	fs.IntVar(&v.drawMoves, "draw-moves", 0, "draw adjudication move count")
	fs.IntVar(&v.resignMoves, "resign-moves", 0, "resign adjudication move count")
	fs.StringVar(&v.pattern, "pattern", "", "candidate filename pattern")
	fs.StringVar(&v.historyPath, "history", "", "history document path")
	fs.StringVar(&v.logDir, "log-dir", "", "raw match log directory")
	fs.DurationVar(&v.interval, "interval", 0, "rescan interval; 0 runs once")
	fs.Float64Var(&v.threshold, "promotion-threshold", 0, "points margin a candidate must exceed")
	fs.BoolVar(&v.watch, "watch", false, "rescan when the candidate directory changes")
	fs.StringVar(&v.statusAddr, "status-addr", "", "bind address for the status API")
	fs.StringVar(&v.webhookURL, "webhook-url", "", "POST promotion events to this URL")
	fs.BoolVar(&v.webhookOnFailure, "webhook-on-failure", false, "also POST evaluation failures")
	fs.StringVar(&v.logLevel, "log-level", "", "log level: debug, info, warn, or error")
	fs.Var(&v.extraArgs, "extra-arg", "extra match tool argument (repeatable)")
}

// applyRunFlags copies explicitly set flags over the loaded configuration.
// Visiting the set keeps zero values like --promotion-threshold 0 distinct
// from flags the user never touched.
func applyRunFlags(cfg *config.Config, fs *flag.FlagSet, v *runFlags) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tool":
			cfg.Tool = v.tool
		case "tool-path":
			cfg.ToolPath = v.toolPath
		case "engine":
			cfg.EnginePath = v.engine
		case "baseline-network":
			cfg.BaselinePath = v.baseline
		case "validated-dir":
			cfg.ValidatedDir = v.validatedDir
		case "deploy-path":
			cfg.DeployPath = v.deployPath
		case "rounds":
			cfg.Rounds = v.rounds
		case "concurrency":
			cfg.Concurrency = v.concurrency
		case "time-control":
			cfg.TimeControl = v.timeControl
		case "threads":
			cfg.Threads = v.threads
		case "opening":
			cfg.OpeningBook = v.opening
		case "draw-moves":
			cfg.DrawMoves = v.drawMoves
		case "resign-moves":
			cfg.ResignMoves = v.resignMoves
		case "pattern":
			cfg.Pattern = v.pattern
		case "history":
			cfg.HistoryPath = v.historyPath
		case "log-dir":
			cfg.LogDir = v.logDir
		case "interval":
			cfg.Interval = config.Duration(v.interval)
		case "promotion-threshold":
			cfg.Threshold = v.threshold
		case "watch":
			cfg.Watch = v.watch
		case "status-addr":
			cfg.StatusAddr = v.statusAddr
		case "webhook-url":
			cfg.WebhookURL = v.webhookURL
		case "webhook-on-failure":
			cfg.WebhookOnFailure = v.webhookOnFailure
		case "log-level":
			cfg.LogLevel = v.logLevel
		}
	})
	if len(v.extraArgs) > 0 {
		cfg.ExtraArgs = append(cfg.ExtraArgs, v.extraArgs...)
	}
	if remainder := fs.Args(); len(remainder) > 0 {
		cfg.ExtraArgs = append(cfg.ExtraArgs, remainder...)
	}
}

func runRunCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	var values runFlags
	registerRunFlags(fs, &values)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		return withExitCode(err, 2)
	}
	applyRunFlags(cfg, fs, &values)
	if err := cfg.Validate(); err != nil {
		return withExitCode(err, 2)
	}
	return runGauntlet(cfg)
}

func runGauntlet(cfg *config.Config) error {
	tool, err := matchtool.ParseTool(cfg.Tool)
	if err != nil {
		return withExitCode(err, 2)
	}

	store := history.NewStore(cfg.HistoryPath)
	if err := store.Load(); err != nil {
		return err
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Dir(cfg.HistoryPath)
	}
	logger, err := logging.NewLogger(logDir, logging.Level(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer logger.Close()

	runner := matchtool.NewRunner(tool, matchtool.Params{
		ToolPath:     cfg.ToolPath,
		EnginePath:   cfg.EnginePath,
		BaselineName: baselineName,
		Baseline:     cfg.BaselinePath,
		Rounds:       cfg.Rounds,
		Concurrency:  cfg.Concurrency,
		TimeControl:  cfg.TimeControl,
		Threads:      cfg.Threads,
		OpeningBook:  cfg.OpeningBook,
		DrawMoves:    cfg.DrawMoves,
		ResignMoves:  cfg.ResignMoves,
		ExtraArgs:    cfg.ExtraArgs,
	}, logDir)

	hub := telemetry.NewHub()
	defer hub.Close()

	// stop doubles as the shutdown trigger: the loop goroutine calls it on
	// the way out so the watcher, status server, and webhook forwarder wind
	// down once a single-shot run finishes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	deps := gauntlet.Dependencies{
		Store:     store,
		Runner:    runner,
		Scanner:   discovery.NewScanner(cfg.ValidatedDir, cfg.Pattern),
		Promoter:  promote.New(cfg.DeployPath),
		Telemetry: hub,
		Logger:    logger,
	}

	if cfg.Watch {
		watcher := discovery.NewWatcher(cfg.ValidatedDir, cfg.Pattern, time.Duration(cfg.WatchDebounce))
		deps.Wake = watcher.Wake()
		group.Go(func() error {
			return watcher.Watch(groupCtx)
		})
	}

	if cfg.StatusAddr != "" {
		server := status.NewServer(status.Config{BindAddress: cfg.StatusAddr, Version: version}, store, hub, logger)
		group.Go(func() error {
			return server.Start(groupCtx)
		})
	}

	if cfg.WebhookURL != "" {
		adapter, err := notify.NewWebhookAdapter(cfg.WebhookURL)
		if err != nil {
			return withExitCode(err, 2)
		}
		manager := notify.NewManager(cfg.WebhookOnFailure, adapter)
		defer manager.Close()
		group.Go(func() error {
			manager.WatchHub(groupCtx, hub)
			return nil
		})
	}

	orch, err := gauntlet.New(gauntlet.Config{
		Tool:         tool.String(),
		BaselineName: baselineName,
		BaselinePath: cfg.BaselinePath,
		Rounds:       cfg.Rounds,
		Threshold:    cfg.Threshold,
		Interval:     time.Duration(cfg.Interval),
	}, deps)
	if err != nil {
		return err
	}

	group.Go(func() error {
		defer stop()
		return orch.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
