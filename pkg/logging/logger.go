// Package logging configures the structured logger shared by all commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level      string
	File       string // Empty means the fallback writer
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// New creates a logger. Without a file, text logs go to fallback; with a
// file, JSON logs go to a rotating lumberjack writer. If the log directory
// cannot be created the logger falls back and records a warning.
func New(opts Options, fallback io.Writer) (*logrus.Logger, error) {
	levelName := opts.Level
	if levelName == "" {
		levelName = "warn"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	if fallback == nil {
		fallback = os.Stderr
	}

	logger := logrus.New()
	logger.SetLevel(level)

	output, toFile, outErr := buildOutput(opts, fallback)
	logger.SetOutput(output)
	if toFile {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	if outErr != nil {
		logger.WithFields(logrus.Fields{
			"action": "logger_fallback",
			"path":   opts.File,
		}).Warn(outErr.Error())
	}

	return logger, nil
}

func buildOutput(opts Options, fallback io.Writer) (io.Writer, bool, error) {
	if opts.File == "" {
		return fallback, false, nil
	}

	dir := filepath.Dir(opts.File)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fallback, false, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
		LocalTime:  true,
	}, true, nil
}

// NewRunID returns an identifier for one CLI invocation.
func NewRunID() string {
	return uuid.NewString()
}

// BaseFields builds the fields every command log line carries.
func BaseFields(action, runID string) logrus.Fields {
	return logrus.Fields{
		"action": action,
		"run_id": runID,
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
