package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jordiqui/nnue-gauntlet/pkg/matchtool"
)

// Defaults for settings the file may omit.
const (
	DefaultTool        = "cutechess"
	DefaultRounds      = 100
	DefaultConcurrency = 2
	DefaultTimeControl = "40/5+0.1"
	DefaultThreads     = 1
	DefaultPattern     = "*.nnue"
	DefaultThreshold   = 0.5
	DefaultHistoryPath = "gauntlet/history.json"
)

// Duration accepts Go duration strings or bare integer seconds in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = 0
		return nil
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", raw)
}

// Config holds every orchestrator setting. Flags override environment
// variables, which override the file, which overrides the defaults.
type Config struct {
	Tool         string   `yaml:"tool"`
	ToolPath     string   `yaml:"tool_path"`
	EnginePath   string   `yaml:"engine_path"`
	BaselinePath string   `yaml:"baseline_network"`
	ValidatedDir string   `yaml:"validated_dir"`
	DeployPath   string   `yaml:"deploy_path"`
	Rounds       int      `yaml:"rounds"`
	Concurrency  int      `yaml:"concurrency"`
	TimeControl  string   `yaml:"time_control"`
	Threads      int      `yaml:"threads"`
	OpeningBook  string   `yaml:"opening_book"`
	DrawMoves    int      `yaml:"draw_moves"`
	ResignMoves  int      `yaml:"resign_moves"`
	ExtraArgs    []string `yaml:"extra_args"`

	Pattern     string   `yaml:"pattern"`
	HistoryPath string   `yaml:"history"`
	LogDir      string   `yaml:"log_dir"`
	Threshold   float64  `yaml:"promotion_threshold"`
	Interval    Duration `yaml:"interval"`

	Watch         bool     `yaml:"watch"`
	WatchDebounce Duration `yaml:"watch_debounce"`

	StatusAddr       string `yaml:"status_addr"`
	WebhookURL       string `yaml:"webhook_url"`
	WebhookOnFailure bool   `yaml:"webhook_on_failure"`
	LogLevel         string `yaml:"log_level"`
}

// Default returns the configuration with every omittable setting filled in.
func Default() *Config {
	return &Config{
		Tool:          DefaultTool,
		Rounds:        DefaultRounds,
		Concurrency:   DefaultConcurrency,
		TimeControl:   DefaultTimeControl,
		Threads:       DefaultThreads,
		Pattern:       DefaultPattern,
		HistoryPath:   DefaultHistoryPath,
		Threshold:     DefaultThreshold,
		WatchDebounce: Duration(2 * time.Second),
		LogLevel:      "info",
	}
}

// Load reads a YAML configuration file layered over the defaults, then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadOrDefault loads the given file, or returns defaults plus environment
// overrides when no file is named.
func LoadOrDefault(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, nil
	}
	return Load(path)
}

// Validate checks settings that must be correct before any match runs. Path
// values only need to be present here; existence is checked separately so a
// config can be written before its artifacts exist.
func (c *Config) Validate() error {
	if _, err := matchtool.ParseTool(c.Tool); err != nil {
		return err
	}
	required := []struct {
		value string
		key   string
	}{
		{c.ToolPath, "tool_path"},
		{c.EnginePath, "engine_path"},
		{c.BaselinePath, "baseline_network"},
		{c.ValidatedDir, "validated_dir"},
		{c.DeployPath, "deploy_path"},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s is required", field.key)
		}
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d", c.Rounds)
	}
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be non-negative, got %d", c.Concurrency)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("promotion_threshold must be non-negative, got %g", c.Threshold)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GAUNTLET_TOOL"); v != "" {
		cfg.Tool = v
	}
	if v := os.Getenv("GAUNTLET_HISTORY"); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv("GAUNTLET_STATUS_ADDR"); v != "" {
		cfg.StatusAddr = v
	}
	if v := os.Getenv("GAUNTLET_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("GAUNTLET_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("GAUNTLET_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Interval = Duration(d)
		}
	}
	if v, ok := envBool("GAUNTLET_WATCH"); ok {
		cfg.Watch = v
	}
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
