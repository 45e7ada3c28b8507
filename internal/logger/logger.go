// Package logger is the structured logging front end of the vtkgrid tools.
// The vtk library itself never logs; commands and the HTTP service do.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Logger is the logging interface handed to commands and handlers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
	// Slog exposes the underlying logger for libraries that take one.
	Slog() *slog.Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New wraps a slog handler.
func New(h slog.Handler) Logger {
	return slogLogger{l: slog.New(h)}
}

// Format selects the output handler.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatText    Format = "text"
)

// Options describes a logger built from flags or the config file.
type Options struct {
	Format Format
	Level  string
	// NoColor disables ANSI colors in console output.
	NoColor bool
}

// Build creates a Logger writing to w.
func Build(w io.Writer, opts Options) (Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	hopts := &slog.HandlerOptions{Level: level}
	switch opts.Format {
	case "", FormatConsole:
		return New(NewConsoleHandler(w, hopts, !opts.NoColor)), nil
	case FormatJSON:
		hopts.AddSource = true
		return New(slog.NewJSONHandler(w, hopts)), nil
	case FormatText:
		return New(slog.NewTextHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want console, json or text)", opts.Format)
	}
}

// Discard drops everything.
func Discard() Logger {
	return New(slog.DiscardHandler)
}

type ctxKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or one that discards output.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return l
	}
	return Discard()
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s slogLogger) With(args ...any) Logger { return slogLogger{l: s.l.With(args...)} }

func (s slogLogger) WithGroup(name string) Logger { return slogLogger{l: s.l.WithGroup(name)} }

func (s slogLogger) Slog() *slog.Logger { return s.l }

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
// An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
