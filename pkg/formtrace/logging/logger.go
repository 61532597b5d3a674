// Package logging builds the slog loggers used by the formtrace CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
)

// Level is a log verbosity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// ParseLevel parses "debug", "info", "warn", "error" or "silent".
// An empty string is LevelInfo.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.Level(100)
	}
}

func colorLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) != 0 {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	var text string
	switch level {
	case slog.LevelDebug:
		text = "DEBUG"
	case slog.LevelInfo:
		text = color.GreenString("INFO")
	case slog.LevelWarn:
		text = color.YellowString("WARN")
	case slog.LevelError:
		text = color.RedString("ERROR")
	default:
		text = level.String()
	}
	a.Value = slog.StringValue(text)
	return a
}

// NewHuman returns a coloured, human-readable logger.
func NewHuman(w io.Writer, level Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:       level.slogLevel(),
		TimeFormat:  time.DateTime,
		ReplaceAttr: colorLevel,
	}))
}

// NewJSON returns a JSON-structured logger.
func NewJSON(w io.Writer, level Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()}))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return NewJSON(io.Discard, LevelSilent)
}

// New picks the logger for a format name: "json", or "human" (the default).
func New(w io.Writer, format string, level Level) (*slog.Logger, error) {
	switch strings.ToLower(format) {
	case "", "human", "text":
		return NewHuman(w, level), nil
	case "json":
		return NewJSON(w, level), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (must be human or json)", format)
	}
}
