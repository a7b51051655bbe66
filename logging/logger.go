// Package logging provides structured logging for stateberry.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/blockberries/stateberry/config"
)

// Logger is a structured logger for stateberry.
// It wraps slog.Logger with convenience methods for common logging patterns.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the given handler.
func New(handler slog.Handler) *Logger {
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a new Logger with text output format.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	}
	return New(slog.NewTextHandler(w, opts))
}

// NewJSONLogger creates a new Logger with JSON output format.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: false,
	}
	return New(slog.NewJSONHandler(w, opts))
}

// NewNopLogger creates a logger that discards all output.
func NewNopLogger() *Logger {
	return New(nopHandler{})
}

// FromConfig builds a logger from logging configuration.
// The returned closer is non-nil when the output is a file.
func FromConfig(cfg config.LoggingConfig) (*Logger, io.Closer, error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	var (
		w      io.Writer
		closer io.Closer
	)
	switch cfg.Output {
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log output: %w", err)
		}
		w = f
		closer = f
	}

	switch cfg.Format {
	case "json":
		return NewJSONLogger(w, level), closer, nil
	default:
		return NewTextLogger(w, level), closer, nil
	}
}

// With returns a new Logger with the given attributes added to every log entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// WithComponent returns a new Logger with a component attribute.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithVersion returns a new Logger with a state version attribute.
func (l *Logger) WithVersion(v uint64) *Logger {
	return l.With(Version(v))
}

// WithKeyHash returns a new Logger with a key hash attribute.
func (l *Logger) WithKeyHash(kh [32]byte) *Logger {
	return l.With(KeyHash(kh))
}

// Common attribute constructors for state-storage fields.

// Component creates a component attribute for identifying the source module.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Version creates a state version attribute.
func Version(v uint64) slog.Attr {
	return slog.Uint64("version", v)
}

// KeyHash creates a key hash attribute (hex-encoded).
func KeyHash(kh [32]byte) slog.Attr {
	return slog.String("key_hash", bytesToHex(kh[:]))
}

// NodeKey creates a node key attribute (hex-encoded).
func NodeKey(key []byte) slog.Attr {
	return slog.String("node_key", bytesToHex(key))
}

// Backend creates a storage backend attribute.
func Backend(name string) slog.Attr {
	return slog.String("backend", name)
}

// Path creates a storage path attribute.
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Duration creates a duration attribute in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64("duration_ms", float64(d.Nanoseconds())/1e6)
}

// Count creates a count attribute.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Size creates a size attribute in bytes.
func Size(n int) slog.Attr {
	return slog.Int("size_bytes", n)
}

// BatchNodes creates a batch node-count attribute.
func BatchNodes(n int) slog.Attr {
	return slog.Int("batch_nodes", n)
}

// BatchValues creates a batch value-count attribute.
func BatchValues(n int) slog.Attr {
	return slog.Int("batch_values", n)
}

// Error creates an error attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Reason creates a reason attribute.
func Reason(r string) slog.Attr {
	return slog.String("reason", r)
}

// bytesToHex converts bytes to hex string.
func bytesToHex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	const hexDigits = "0123456789abcdef"
	hex := make([]byte, len(b)*2)
	for i, v := range b {
		hex[i*2] = hexDigits[v>>4]
		hex[i*2+1] = hexDigits[v&0x0f]
	}
	return string(hex)
}

// nopHandler is a slog.Handler that discards all logs.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
