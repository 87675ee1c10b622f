// Package logging provides a leveled logger backed by log/slog.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slog() slog.Level {
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
		// Above every level: nothing is emitted.
		return slog.LevelError + 4
	}
}

// ParseLevel parses a log level string.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format selects the handler used to render records.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name, defaulting to text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Options configures a Logger.
type Options struct {
	Level  Level
	Format Format
	Output io.Writer // defaults to os.Stderr
}

// Logger is a leveled logger. It is safe for concurrent use.
type Logger struct {
	mu     sync.Mutex
	level  *slog.LevelVar
	format Format
	output io.Writer
	attrs  []any
	sl     *slog.Logger
}

// New creates a text logger writing to stderr.
func New(level Level) *Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a logger from opts.
func NewWithOptions(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	l := &Logger{
		level:  new(slog.LevelVar),
		format: opts.Format,
		output: opts.Output,
	}
	l.level.Set(opts.Level.slog())
	l.rebuild()
	return l
}

// rebuild recreates the slog handler. Callers hold mu or own l exclusively.
func (l *Logger) rebuild() {
	hopts := &slog.HandlerOptions{Level: l.level}
	var h slog.Handler
	if l.format == FormatJSON {
		h = slog.NewJSONHandler(l.output, hopts)
	} else {
		h = slog.NewTextHandler(l.output, hopts)
	}
	l.sl = slog.New(h).With(l.attrs...)
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.rebuild()
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level.slog())
}

// With returns a logger that adds key/value pairs to every record. The child
// shares the parent's level.
func (l *Logger) With(args ...any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	child := &Logger{
		level:  l.level,
		format: l.format,
		output: l.output,
		attrs:  append(append([]any{}, l.attrs...), args...),
	}
	child.rebuild()
	return child
}

// Slog exposes the underlying slog logger.
func (l *Logger) Slog() *slog.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sl
}

func (l *Logger) log(level slog.Level, format string, args ...any) {
	sl := l.Slog()
	ctx := context.Background()
	if !sl.Enabled(ctx, level) {
		return
	}
	sl.Log(ctx, level, fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return NewWithOptions(Options{Level: LevelError + 1, Output: io.Discard})
}
