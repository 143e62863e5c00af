package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Conductor configuration
type Config struct {
	// Root is the directory where effort state is stored.
	// If empty, defaults to $XDG_DATA_HOME/conductor (or ~/.local/share/conductor).
	// Supports ~ for home directory expansion.
	Root    string        `mapstructure:"root"`
	Log     LogConfig     `mapstructure:"log"`
	Display DisplayConfig `mapstructure:"display"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// LogConfig controls debug logging behavior
type LogConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// File overrides the log file location. If empty, logs go to
	// debug.log under the storage root.
	File string `mapstructure:"file"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// DisplayConfig controls terminal output rendering
type DisplayConfig struct {
	// Color enables styled output. Set to false for plain text; the
	// --plain flag on status overrides this per invocation.
	Color bool `mapstructure:"color"`
	// MaxWidth truncates rendered lines to this many columns (0 = no limit)
	MaxWidth int `mapstructure:"max_width"`
}

// WatchConfig controls the signal watcher
type WatchConfig struct {
	// DebounceMs coalesces bursts of filesystem events into a single
	// refresh (default: 250)
	DebounceMs int `mapstructure:"debounce_ms"`
	// PollIntervalMs is the fallback polling interval used when the
	// filesystem watcher cannot be established (default: 2000)
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

// Debounce returns the watch debounce window as a time.Duration
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// PollInterval returns the fallback polling interval as a time.Duration
func (w *WatchConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMs) * time.Millisecond
}

// ResolveRoot returns the resolved storage root path.
// If Root is empty, it returns the default under the user's data directory.
// If Root starts with ~, it expands to the user's home directory.
// If Root is a relative path, it's resolved relative to baseDir.
func (c *Config) ResolveRoot(baseDir string) string {
	if c.Root == "" {
		return DataDir()
	}

	path := c.Root

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// If relative path, resolve relative to baseDir
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Root: "", // Empty means use DataDir()
		Log: LogConfig{
			Enabled:    true,
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Display: DisplayConfig{
			Color:    true,
			MaxWidth: 0, // No truncation by default
		},
		Watch: WatchConfig{
			DebounceMs:     250,
			PollIntervalMs: 2000,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Storage defaults
	viper.SetDefault("root", defaults.Root)

	// Log defaults
	viper.SetDefault("log.enabled", defaults.Log.Enabled)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	viper.SetDefault("log.max_backups", defaults.Log.MaxBackups)

	// Display defaults
	viper.SetDefault("display.color", defaults.Display.Color)
	viper.SetDefault("display.max_width", defaults.Display.MaxWidth)

	// Watch defaults
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
	viper.SetDefault("watch.poll_interval_ms", defaults.Watch.PollIntervalMs)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "conductor")
	}
	// Fall back to ~/.config/conductor
	home, err := os.UserHomeDir()
	if err != nil {
		return ".conductor"
	}
	return filepath.Join(home, ".config", "conductor")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the default storage root for effort state
func DataDir() string {
	// Check XDG_DATA_HOME first
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "conductor")
	}
	// Fall back to ~/.local/share/conductor
	home, err := os.UserHomeDir()
	if err != nil {
		return ".conductor"
	}
	return filepath.Join(home, ".local", "share", "conductor")
}

// LogFile returns the resolved log file path for the given storage root.
// An explicit log.file setting wins; otherwise logs live under the root.
func (c *Config) LogFile(root string) string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(root, "debug.log")
}
