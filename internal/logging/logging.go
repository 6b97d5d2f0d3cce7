// Package logging provides structured logging using slog.
// Logs are written to .orch/daemon.log in append mode.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const (
	// LogFileName is the name of the daemon log file.
	LogFileName = "daemon.log"
	// ConfigDir is the directory name for orchestrator state.
	ConfigDir = ".orch"
)

var (
	// defaultLogger is the package-level logger.
	defaultLogger *slog.Logger
	// logFile is the file handle for the log file.
	logFile *os.File
	// mu protects concurrent access to the logger.
	mu sync.RWMutex
)

// Init initializes the logger with the project root path.
// Logs are written to <projectRoot>/.orch/daemon.log in append mode.
// If projectRoot is empty, logging is disabled (writes to io.Discard).
func Init(projectRoot string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	var w io.Writer
	if projectRoot == "" {
		w = io.Discard
	} else {
		dir := filepath.Join(projectRoot, ConfigDir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			w = io.Discard
		} else {
			f, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				w = io.Discard
			} else {
				logFile = f
				w = f
			}
		}
	}

	defaultLogger = newLogger(w)
	return nil
}

// InitWriter points the logger at w. Used by tests that want to inspect output.
func InitWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = newLogger(w)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// Close closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

// Logger returns the default logger.
// If not initialized, returns a no-op logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if defaultLogger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return defaultLogger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs at warning level.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// InfoContext logs at info level with context.
func InfoContext(ctx context.Context, msg string, args ...any) {
	Logger().InfoContext(ctx, msg, args...)
}

// WarnContext logs at warning level with context.
func WarnContext(ctx context.Context, msg string, args ...any) {
	Logger().WarnContext(ctx, msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// StateMachine returns the logger used for workflow checks, transitions and
// actions. Entries carry component=state_machine so they can be filtered out
// of the daemon log.
func StateMachine() *slog.Logger {
	return Logger().With("component", "state_machine")
}
