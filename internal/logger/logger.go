// Package logger builds the zerolog logger shared by every component.
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Format selects how log lines are rendered.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// FileName is the log file created in the logs directory.
const FileName = "stoptrackingme.log"

// Config describes where and how to log.
type Config struct {
	Level      zerolog.Level
	Format     Format
	Console    bool
	Output     io.Writer // console destination, os.Stderr when nil
	File       string    // rotated log file, disabled when empty
	MaxSizeMB  int
	MaxBackups int
}

// DefaultConfig logs info and above to stderr only.
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     FormatConsole,
		Console:    true,
		MaxSizeMB:  10,
		MaxBackups: 5,
	}
}

// New builds a logger writing to every configured destination.
func New(cfg Config) (zerolog.Logger, error) {
	var writers []io.Writer

	if cfg.Console {
		out := cfg.Output
		if out == nil {
			out = os.Stderr
		}
		writers = append(writers, consoleWriter(cfg.Format, out, false))
	}

	if cfg.File != "" {
		if cfg.MaxSizeMB <= 0 {
			return zerolog.Logger{}, fmt.Errorf("invalid log max size %d", cfg.MaxSizeMB)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Logger{}, fmt.Errorf("failed to create log directory: %w", err)
		}
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			LocalTime:  true,
		}
		writers = append(writers, consoleWriter(cfg.Format, rotating, true))
	}

	if len(writers) == 0 {
		return zerolog.Logger{}, errors.New("no log outputs configured")
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger(), nil
}

// ParseLevel parses a level name such as "debug" or "warn".
func ParseLevel(s string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("invalid log format %q", s)
}

func consoleWriter(format Format, out io.Writer, noColor bool) io.Writer {
	if format == FormatJSON {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, NoColor: noColor, TimeFormat: time.DateTime}
}
