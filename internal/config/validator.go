package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "log.max_size_mb")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate storage root
	errors = append(errors, c.validateRoot()...)

	// Validate Log config
	errors = append(errors, c.validateLog()...)

	// Validate Display config
	errors = append(errors, c.validateDisplay()...)

	// Validate Watch config
	errors = append(errors, c.validateWatch()...)

	return errors
}

// validateRoot validates the storage root path
func (c *Config) validateRoot() []ValidationError {
	var errors []ValidationError

	if c.Root != "" {
		// Check for null bytes which are invalid in paths
		if strings.ContainsRune(c.Root, '\x00') {
			errors = append(errors, ValidationError{
				Field:   "root",
				Value:   c.Root,
				Message: "path contains invalid null character",
			})
		}

		// Reasonable path length limit (most filesystems have limits around 4096)
		const maxPathLength = 4096
		if len(c.Root) > maxPathLength {
			errors = append(errors, ValidationError{
				Field:   "root",
				Value:   c.Root,
				Message: fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength),
			})
		}
	}

	return errors
}

// validateLog validates the LogConfig
func (c *Config) validateLog() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Log.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Log.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "log.max_size_mb",
			Value:   c.Log.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Log.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "log.max_size_mb",
			Value:   c.Log.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Log.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "log.max_backups",
			Value:   c.Log.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateDisplay validates the DisplayConfig
func (c *Config) validateDisplay() []ValidationError {
	var errors []ValidationError

	if c.Display.MaxWidth < 0 {
		errors = append(errors, ValidationError{
			Field:   "display.max_width",
			Value:   c.Display.MaxWidth,
			Message: "must be non-negative (0 = no limit)",
		})
	}

	// Anything narrower than this truncates status lines into noise
	const minUsableWidth = 20
	if c.Display.MaxWidth > 0 && c.Display.MaxWidth < minUsableWidth {
		errors = append(errors, ValidationError{
			Field:   "display.max_width",
			Value:   c.Display.MaxWidth,
			Message: fmt.Sprintf("must be at least %d columns when set", minUsableWidth),
		})
	}

	return errors
}

// validateWatch validates the WatchConfig
func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	if c.Watch.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: "must be non-negative",
		})
	}

	const maxDebounceMs = 10000
	if c.Watch.DebounceMs > maxDebounceMs {
		errors = append(errors, ValidationError{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: fmt.Sprintf("exceeds maximum of %dms", maxDebounceMs),
		})
	}

	if c.Watch.PollIntervalMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.poll_interval_ms",
			Value:   c.Watch.PollIntervalMs,
			Message: "must be non-negative",
		})
	}

	// Polling faster than this hammers the filesystem for no benefit
	const minPollIntervalMs = 100
	if c.Watch.PollIntervalMs > 0 && c.Watch.PollIntervalMs < minPollIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "watch.poll_interval_ms",
			Value:   c.Watch.PollIntervalMs,
			Message: fmt.Sprintf("must be at least %dms when set", minPollIntervalMs),
		})
	}

	return errors
}
