// Package logging wraps log/slog so every component logs the same way.
//
//	logging.Init(slog.LevelInfo, false)
//	log := logging.Component("feed")
//	log.Warn("github request failed", "owner", owner, "error", err)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// Init installs a logger writing to stderr. Output goes to stderr so that
// command output on stdout stays machine readable.
func Init(level slog.Level, jsonFormat bool) {
	InitWithWriter(os.Stderr, level, jsonFormat)
}

// InitWithWriter installs a logger writing to w.
func InitWithWriter(w io.Writer, level slog.Level, jsonFormat bool) {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	InitWithHandler(handler)
}

// InitWithHandler installs a logger built on handler. Tests use it to capture output.
func InitWithHandler(handler slog.Handler) {
	l := slog.New(handler)
	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// Discard silences all logging.
func Discard() {
	InitWithHandler(slog.NewTextHandler(io.Discard, nil))
}

func current() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(slog.LevelInfo, false)
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a logger carrying extra attributes on every entry.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Component returns a logger tagged with a component name.
func Component(name string) *slog.Logger {
	return current().With("component", name)
}

// ParseLevel maps a config string to a slog level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Tag adds attributes to the installed logger so every later entry carries
// them. Loggers handed out before the call are unaffected.
func Tag(args ...any) {
	l := current().With(args...)
	mu.Lock()
	logger = l
	mu.Unlock()
	slog.SetDefault(l)
}
