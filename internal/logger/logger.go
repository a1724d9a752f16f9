// Package logger builds the slog loggers used by the server and the CLI.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alkime/lectio/internal/config"
)

// Level derives the log level from the environment and LOG_LEVEL.
func Level(cfg *config.Config) slog.Level {
	logLevel := slog.LevelInfo
	if cfg.Env == config.EnvDevelopment {
		logLevel = slog.LevelDebug
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	return logLevel
}

// SetupLogger configures structured JSON logging for the server and installs
// it as the default logger.
func SetupLogger(cfg *config.Config) *slog.Logger {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: Level(cfg),
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// NewTextLogger returns a human readable logger for CLI commands.
func NewTextLogger(w io.Writer, level slog.Level) *slog.Logger {
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewFileLogger appends text logs to path. The TUI owns the terminal, so its
// logs go to a file. The returned closer closes the file.
func NewFileLogger(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return NewTextLogger(f, level), f, nil
}
