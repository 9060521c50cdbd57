// Package logging builds the zerolog logger shared by the commands.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Format selects the log encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format Format
	Out    io.Writer
	// NoColor disables ANSI colors in console output.
	NoColor bool
}

// New creates a structured logger writing to cfg.Out.
func New(cfg Config) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	var output io.Writer
	switch Format(strings.ToLower(string(cfg.Format))) {
	case "", FormatConsole:
		output = zerolog.ConsoleWriter{
			Out:        cfg.Out,
			TimeFormat: time.TimeOnly,
			NoColor:    cfg.NoColor,
		}
	case FormatJSON:
		output = cfg.Out
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q (expected console or json)", cfg.Format)
	}

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// ParseLevel accepts debug, info, warn and error. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q (expected debug, info, warn or error)", s)
	}
}
