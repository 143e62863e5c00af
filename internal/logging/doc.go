// Package logging provides structured logging for conductor efforts.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation support for debugging and post-hoc analysis. Because
// every participant in an effort runs without memory of previous runs, the
// debug log is often the only record of why the engine skipped a signal or
// retried a save; it is written for reading back later, not just tailing.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (effort ID, session ID)
//   - Log rotation with configurable size limits
//   - Log aggregation and filtering utilities
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. The [Logger] type
// uses Go's slog internally which is designed for concurrent access. The
// [RotatingWriter] type uses a mutex to protect file operations during
// rotation. Child loggers created via With* methods share the underlying
// writer safely.
//
// # Basic Usage
//
// Create a logger for a storage root:
//
//	logger, err := logging.NewLogger("/path/to/root", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	// Log messages at various levels
//	logger.Debug("detailed info", "key", "value")
//	logger.Info("operation completed", "duration_ms", 150)
//	logger.Warn("skipped malformed signal", "file", name)
//	logger.Error("operation failed", "error", err.Error())
//
// # Context Propagation
//
// Create child loggers with persistent context attributes:
//
//	// Add effort context
//	effortLogger := logger.WithEffort("auth-refactor")
//
//	// Add session context
//	sessionLogger := effortLogger.WithSession("2.1")
//
//	// All logs from sessionLogger will include effort_id and session_id
//	sessionLogger.Info("session started", "baseline", ref)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"session started","effort_id":"auth-refactor","session_id":"2.1","baseline":"4f2c91a"}
//
// # Log Rotation
//
// For long-running efforts, use log rotation to prevent unbounded growth:
//
//	config := logging.RotationConfig{
//	    MaxSizeMB:  10, // Rotate when file exceeds 10MB
//	    MaxBackups: 3,  // Keep 3 backup files
//	}
//
//	logger, err := logging.NewLoggerWithRotation("/path/to/root", "INFO", config)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
// Rotated files are named: debug.log.1, debug.log.2, etc., where .1 is the
// most recent backup.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output:
//
//	func TestSomething(t *testing.T) {
//	    logger := logging.NopLogger()
//	    // Use logger in tests without creating files
//	}
//
// # Log Aggregation and Filtering
//
// Read and analyze logs after the fact:
//
//	// Load all logs from the storage root
//	entries, err := logging.AggregateLogs("/path/to/root")
//	if err != nil {
//	    return err
//	}
//
//	// Filter logs by various criteria
//	filter := logging.LogFilter{
//	    Level:     "WARN",                         // Minimum level
//	    EffortID:  "auth-refactor",                // Specific effort
//	    SessionID: "2.1",                          // Specific session
//	    StartTime: time.Now().Add(-1 * time.Hour), // Last hour
//	}
//	filtered := logging.FilterLogs(entries, filter)
//
// # Log Levels
//
// The package defines four log levels:
//
//   - [LevelDebug]: Detailed information for debugging
//   - [LevelInfo]: General operational information (default)
//   - [LevelWarn]: Warning conditions that may need attention
//   - [LevelError]: Error conditions that affect functionality
//
// Use [ValidLevels] to get the list of valid level strings, and [ParseLevel]
// to normalize user-provided level strings.
//
// # Configuration
//
// The logging system is typically configured via conductor's config file:
//
//	log:
//	  level: info
//	  max_size_mb: 10
//	  max_backups: 3
package logging
