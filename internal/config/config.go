// Package config defines the wfgate configuration: every behavior toggle the
// hooks consult, resolved once per process at startup. Values come from
// ~/.config/wfgate/config.yaml (XDG honored), WFGATE_* environment variables,
// and built-in defaults, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete wfgate configuration.
type Config struct {
	Enforcement   EnforcementConfig  `mapstructure:"enforcement"`
	Tracker       TrackerConfig      `mapstructure:"tracker"`
	Hooks         HooksConfig        `mapstructure:"hooks"`
	Paths         PathsConfig        `mapstructure:"paths"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// EnforcementConfig controls the pre-invocation gate.
type EnforcementConfig struct {
	// MainAgentLimits restricts the orchestrating agent from editing code
	// files directly; code edits must go through Task(developer).
	MainAgentLimits bool `mapstructure:"main_agent_limits"`
	// TestMode disables the main-agent edit restriction without turning
	// the rest of the gate off. Used by the hook test harness.
	TestMode bool `mapstructure:"test_mode"`
	// CodeExtensions is the set of file extensions classified as code.
	// Extensions include the leading dot and are matched case-insensitively.
	CodeExtensions []string `mapstructure:"code_extensions"`
}

// TrackerConfig controls the event log and violation detection.
type TrackerConfig struct {
	// StaleWindowMinutes is how long an event counts toward the pending
	// counters before it is ignored during replay.
	StaleWindowMinutes int `mapstructure:"stale_window_minutes"`
	// WarnThresholdEdits is the pending-edit count above which a
	// MISSING_REVIEW violation is emitted.
	WarnThresholdEdits int `mapstructure:"warn_threshold_edits"`
	// MaxLogSizeBytes is the event-log byte ceiling that triggers truncation.
	MaxLogSizeBytes int64 `mapstructure:"max_log_size_bytes"`
	// KeepRecords is how many of the newest records survive truncation.
	KeepRecords int `mapstructure:"keep_records"`
}

// HooksConfig controls the stdin protocol shared by every hook.
type HooksConfig struct {
	// InputTimeoutMs bounds the stdin read; after the timeout the input is
	// treated as empty and the hook is a no-op.
	InputTimeoutMs int `mapstructure:"input_timeout_ms"`
	// MaxInputBytes caps how much of stdin is read.
	MaxInputBytes int64 `mapstructure:"max_input_bytes"`
}

// PathsConfig controls where wfgate stores and finds data.
type PathsConfig struct {
	// StateDir holds the state document, event streams, and debug log.
	// Defaults to ~/.claude/workflow-state. Supports ~ expansion.
	StateDir string `mapstructure:"state_dir"`
	// ChangesDir is where per-change spec directories live; the completion
	// checklist requires the active change directory to be archived out of
	// it. Defaults to ~/.claude/openspec/changes.
	ChangesDir string `mapstructure:"changes_dir"`
	// ArchiveDir is the destination for archived change directories.
	ArchiveDir string `mapstructure:"archive_dir"`
	// TasksSearchDirs are the subdirectories, relative to a project root,
	// searched for the task checklist document.
	TasksSearchDirs []string `mapstructure:"tasks_search_dirs"`
}

// LoggingConfig controls debug logging.
type LoggingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// NotificationConfig controls desktop notifications on workflow completion.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// TimeoutMs bounds the external notification command.
	TimeoutMs int `mapstructure:"timeout_ms"`
}

// defaultCodeExtensions is the built-in code-file classification list.
var defaultCodeExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
	".py", ".pyw",
	".go", ".rs",
	".java", ".kt", ".kts",
	".swift", ".m", ".mm",
	".c", ".cpp", ".cc", ".cxx", ".h", ".hpp",
	".rb", ".php",
	".sh", ".bash", ".zsh",
	".sql",
	".vue", ".svelte",
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Enforcement: EnforcementConfig{
			MainAgentLimits: true,
			TestMode:        false,
			CodeExtensions:  defaultCodeExtensions,
		},
		Tracker: TrackerConfig{
			StaleWindowMinutes: 60,
			WarnThresholdEdits: 1,
			MaxLogSizeBytes:    1024 * 1024,
			KeepRecords:        500,
		},
		Hooks: HooksConfig{
			InputTimeoutMs: 1000,
			MaxInputBytes:  1024 * 1024,
		},
		Paths: PathsConfig{
			StateDir:        "",
			ChangesDir:      "",
			ArchiveDir:      "",
			TasksSearchDirs: []string{"openspec", ".claude", "."},
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Notifications: NotificationConfig{
			Enabled:   true,
			TimeoutMs: 5000,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	d := Default()

	viper.SetDefault("enforcement.main_agent_limits", d.Enforcement.MainAgentLimits)
	viper.SetDefault("enforcement.test_mode", d.Enforcement.TestMode)
	viper.SetDefault("enforcement.code_extensions", d.Enforcement.CodeExtensions)

	viper.SetDefault("tracker.stale_window_minutes", d.Tracker.StaleWindowMinutes)
	viper.SetDefault("tracker.warn_threshold_edits", d.Tracker.WarnThresholdEdits)
	viper.SetDefault("tracker.max_log_size_bytes", d.Tracker.MaxLogSizeBytes)
	viper.SetDefault("tracker.keep_records", d.Tracker.KeepRecords)

	viper.SetDefault("hooks.input_timeout_ms", d.Hooks.InputTimeoutMs)
	viper.SetDefault("hooks.max_input_bytes", d.Hooks.MaxInputBytes)

	viper.SetDefault("paths.state_dir", d.Paths.StateDir)
	viper.SetDefault("paths.changes_dir", d.Paths.ChangesDir)
	viper.SetDefault("paths.archive_dir", d.Paths.ArchiveDir)
	viper.SetDefault("paths.tasks_search_dirs", d.Paths.TasksSearchDirs)

	viper.SetDefault("logging.enabled", d.Logging.Enabled)
	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", d.Logging.MaxBackups)

	viper.SetDefault("notifications.enabled", d.Notifications.Enabled)
	viper.SetDefault("notifications.timeout_ms", d.Notifications.TimeoutMs)
}

// Load reads the configuration from viper into a Config struct and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if loading
// fails. Hooks use this path: a broken config file must not block the
// orchestrator.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// StaleWindow returns the tracker staleness window as a duration.
func (c *TrackerConfig) StaleWindow() time.Duration {
	return time.Duration(c.StaleWindowMinutes) * time.Minute
}

// InputTimeout returns the stdin read timeout as a duration.
func (c *HooksConfig) InputTimeout() time.Duration {
	return time.Duration(c.InputTimeoutMs) * time.Millisecond
}

// Timeout returns the notification command timeout as a duration.
func (c *NotificationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// IsCodeFile reports whether the file path has an extension in the
// code-classification list.
func (c *EnforcementConfig) IsCodeFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, e := range c.CodeExtensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// ResolveStateDir returns the state directory, applying the default and
// expanding a leading ~.
func (p *PathsConfig) ResolveStateDir() string {
	if p.StateDir == "" {
		return filepath.Join(homeDir(), ".claude", "workflow-state")
	}
	return expandHome(p.StateDir)
}

// ResolveChangesDir returns the change-directory root.
func (p *PathsConfig) ResolveChangesDir() string {
	if p.ChangesDir == "" {
		return filepath.Join(homeDir(), ".claude", "openspec", "changes")
	}
	return expandHome(p.ChangesDir)
}

// ResolveArchiveDir returns the archive destination for completed changes.
func (p *PathsConfig) ResolveArchiveDir() string {
	if p.ArchiveDir == "" {
		return filepath.Join(homeDir(), ".claude", "openspec", "archive")
	}
	return expandHome(p.ArchiveDir)
}

// StateFile returns the path of the workflow-state document.
func (p *PathsConfig) StateFile() string {
	return filepath.Join(p.ResolveStateDir(), "current.json")
}

// EventsFile returns the path of the append-only event stream.
func (p *PathsConfig) EventsFile() string {
	return filepath.Join(p.ResolveStateDir(), "workflow-events.jsonl")
}

// ViolationsFile returns the path of the violation stream.
func (p *PathsConfig) ViolationsFile() string {
	return filepath.Join(p.ResolveStateDir(), "workflow-violations.jsonl")
}

// DebugLogFile returns the path of the shared debug log.
func (p *PathsConfig) DebugLogFile() string {
	return filepath.Join(p.ResolveStateDir(), "debug.log")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wfgate")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wfgate"
	}
	return filepath.Join(home, ".config", "wfgate")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
