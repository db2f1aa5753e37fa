// Package config loads orchestrator configuration from YAML with
// environment-variable overrides and sane defaults on the zero value.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConsoleConfig controls terminal output formatting for the CLI's event
// bus subscriber.
type ConsoleConfig struct {
	EnableColor    bool `yaml:"enable_color"`
	EnableProgress bool `yaml:"enable_progress_bar"`
	CompactMode    bool `yaml:"compact_mode"`
	ShowDurations  bool `yaml:"show_durations"`
}

// Config represents the recognised options from spec.md §6, plus the
// ambient logging/timeout settings every stage and dispatcher call needs.
type Config struct {
	// MaxParallel bounds wave concurrency and the file-overlap-free wave
	// size (spec.md §6). Default 4.
	MaxParallel int `yaml:"max_parallel"`

	// WaveCooldownSeconds pauses between waves to respect rate limits.
	// Default 0 (disabled).
	WaveCooldownSeconds int `yaml:"wave_cooldown_seconds"`

	// ReviewScoreThreshold is the minimum reviewer score (0..10) for the
	// quality gate to grant. Default 6.
	ReviewScoreThreshold int `yaml:"review_score_threshold"`

	// MaxIterations caps retries per task before escalation. Default 3.
	MaxIterations int `yaml:"max_iterations"`

	// WorktreesEnabled switches the wave dispatcher to per-task worktree
	// isolation in local mode. Default false.
	WorktreesEnabled bool `yaml:"worktrees_enabled"`

	// StrictDeterminism requires deterministic wave selection and merge
	// ordering; when true, scheduler/merge non-determinism is a fatal
	// error rather than a best-effort warning. Default true.
	StrictDeterminism bool `yaml:"strict_determinism"`

	// SkipUnblocksDependents resolves the Open Question in spec.md §9:
	// whether a `skip` failure action adds the task id to completed-ids.
	// Default true.
	SkipUnblocksDependents bool `yaml:"skip_unblocks_dependents"`

	// DiagnosticFilePatterns is the injectable filter (spec.md §9 Open
	// Questions) used by the quality gate to exclude internal diagnostic
	// files from a coder task's files-affected list.
	DiagnosticFilePatterns []string `yaml:"diagnostic_file_patterns"`

	// DispatchTimeout is the per-task wall-clock timeout passed to every
	// dispatcher call (spec.md §5 Cancellation and timeouts).
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`

	// LLMTimeout bounds classifier/spec-generator/planner/clarifier calls.
	LLMTimeout time.Duration `yaml:"llm_timeout"`

	LogLevel string        `yaml:"log_level"`
	LogDir   string        `yaml:"log_dir"`
	Console  ConsoleConfig `yaml:"console"`
}

// DefaultConfig returns a Config with the defaults named in spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		MaxParallel:            4,
		WaveCooldownSeconds:    0,
		ReviewScoreThreshold:   6,
		MaxIterations:          3,
		WorktreesEnabled:       false,
		StrictDeterminism:      true,
		SkipUnblocksDependents: true,
		DiagnosticFilePatterns: []string{".log", ".jsonl", "/.worldmind/", "/agent-logs/"},
		DispatchTimeout:        2 * time.Hour,
		LLMTimeout:             5 * time.Minute,
		LogLevel:               "info",
		LogDir:                 ".worldmind/logs",
		Console: ConsoleConfig{
			EnableColor:    true,
			EnableProgress: true,
			ShowDurations:  true,
		},
	}
}

// yamlConfig mirrors Config with string durations, matching the teacher's
// pattern of unmarshalling into a shadow struct to hand-parse durations.
type yamlConfig struct {
	MaxParallel            int           `yaml:"max_parallel"`
	WaveCooldownSeconds    int           `yaml:"wave_cooldown_seconds"`
	ReviewScoreThreshold   int           `yaml:"review_score_threshold"`
	MaxIterations          int           `yaml:"max_iterations"`
	WorktreesEnabled       bool          `yaml:"worktrees_enabled"`
	StrictDeterminism      *bool         `yaml:"strict_determinism"`
	SkipUnblocksDependents *bool         `yaml:"skip_unblocks_dependents"`
	DiagnosticFilePatterns []string      `yaml:"diagnostic_file_patterns"`
	DispatchTimeout        string        `yaml:"dispatch_timeout"`
	LLMTimeout             string        `yaml:"llm_timeout"`
	LogLevel               string        `yaml:"log_level"`
	LogDir                 string        `yaml:"log_dir"`
	Console                ConsoleConfig `yaml:"console"`
}

// LoadConfig loads configuration from path, merging over DefaultConfig.
// A missing file is not an error — defaults (with env overrides applied)
// are returned as-is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if raw.MaxParallel != 0 {
		cfg.MaxParallel = raw.MaxParallel
	}
	if raw.WaveCooldownSeconds != 0 {
		cfg.WaveCooldownSeconds = raw.WaveCooldownSeconds
	}
	if raw.ReviewScoreThreshold != 0 {
		cfg.ReviewScoreThreshold = raw.ReviewScoreThreshold
	}
	if raw.MaxIterations != 0 {
		cfg.MaxIterations = raw.MaxIterations
	}
	cfg.WorktreesEnabled = raw.WorktreesEnabled
	if raw.StrictDeterminism != nil {
		cfg.StrictDeterminism = *raw.StrictDeterminism
	}
	if raw.SkipUnblocksDependents != nil {
		cfg.SkipUnblocksDependents = *raw.SkipUnblocksDependents
	}
	if len(raw.DiagnosticFilePatterns) > 0 {
		cfg.DiagnosticFilePatterns = raw.DiagnosticFilePatterns
	}
	if raw.DispatchTimeout != "" {
		d, err := time.ParseDuration(raw.DispatchTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid dispatch_timeout %q: %w", raw.DispatchTimeout, err)
		}
		cfg.DispatchTimeout = d
	}
	if raw.LLMTimeout != "" {
		d, err := time.ParseDuration(raw.LLMTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid llm_timeout %q: %w", raw.LLMTimeout, err)
		}
		cfg.LLMTimeout = d
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}
	if raw.LogDir != "" {
		cfg.LogDir = raw.LogDir
	}

	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if consoleSection, ok := rawMap["console"].(map[string]interface{}); ok {
			if _, ok := consoleSection["enable_color"]; ok {
				cfg.Console.EnableColor = raw.Console.EnableColor
			}
			if _, ok := consoleSection["enable_progress_bar"]; ok {
				cfg.Console.EnableProgress = raw.Console.EnableProgress
			}
			if _, ok := consoleSection["compact_mode"]; ok {
				cfg.Console.CompactMode = raw.Console.CompactMode
			}
			if _, ok := consoleSection["show_durations"]; ok {
				cfg.Console.ShowDurations = raw.Console.ShowDurations
			}
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets WORLDMIND_MAX_PARALLEL and WORLDMIND_LOG_LEVEL
// override the resolved config, matching the teacher's env-override
// convention for console settings.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("WORLDMIND_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("WORLDMIND_CONSOLE_COLOR"); val != "" {
		cfg.Console.EnableColor = val == "true" || val == "1"
	}
}
