// Package logging wraps a process-wide zerolog logger.
//
// CLI output meant for humans goes through the cmd package's print helpers;
// this logger carries diagnostics (level, format and destination are set
// from config at startup).
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error, disabled.
	Level string
	// Format is json or console.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	initLogger(Config{Level: "warn", Format: "console"})
}

// Init reconfigures the global logger. Safe to call more than once.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}
	log = zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func current() *zerolog.Logger {
	l := Logger()
	return &l
}

// Debug starts a debug-level event on the global logger.
func Debug() *zerolog.Event { return current().Debug() }

// Info starts an info-level event on the global logger.
func Info() *zerolog.Event { return current().Info() }

// Warn starts a warn-level event on the global logger.
func Warn() *zerolog.Event { return current().Warn() }

// Error starts an error-level event on the global logger.
func Error() *zerolog.Event { return current().Error() }

type requestIDKey struct{}

// WithRequestID stores a request ID on ctx for Ctx to pick up.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID stored on ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Ctx returns the global logger annotated with the request ID from ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := current()
	if id := RequestID(ctx); id != "" {
		tagged := l.With().Str("request_id", id).Logger()
		return &tagged
	}
	return l
}
