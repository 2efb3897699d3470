// Package logging builds the service-wide slog logger: a tinted console
// handler for humans, optionally fanned out to a size-rotated JSON file for
// ingestion. The returned LevelVar allows hot-reloading the level without
// rebuilding the logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/barriocredito/voxpedido/internal/config"
)

// Options configures Setup. The zero value logs info and above to stderr.
type Options struct {
	// Level is the initial minimum level. Empty means info.
	Level config.LogLevel

	// File enables JSON file output at the given path when non-empty.
	File string

	// MaxSizeMB rotates the file after it reaches this size. Default: 100.
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept. Default: 3.
	MaxBackups int

	// MaxAgeDays removes rotated files older than this. Default: 28.
	MaxAgeDays int

	// NoColor disables ANSI colors on the console handler.
	NoColor bool
}

// FromConfig converts the config logging section into Options.
func FromConfig(cfg config.LoggingConfig) Options {
	return Options{
		Level:      cfg.Level,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	}
}

// Setup builds the logger, installs it as the slog default, and returns it
// together with the LevelVar controlling its threshold.
func Setup(opts Options) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	level.Set(ParseLevel(opts.Level))

	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    opts.NoColor,
		}),
	}

	if opts.File != "" {
		handlers = append(handlers, slog.NewJSONHandler(newRotatedWriter(opts), &slog.HandlerOptions{
			Level: level,
		}))
	}

	var h slog.Handler
	if len(handlers) == 1 {
		h = handlers[0]
	} else {
		h = fanoutHandler(handlers)
	}

	log := slog.New(h)
	slog.SetDefault(log)
	return log, level
}

// ParseLevel maps a config level to its slog value. Unknown levels fall back
// to info.
func ParseLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newRotatedWriter(opts Options) io.Writer {
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	maxBackups := opts.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	maxAge := opts.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 28
	}
	return &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	}
}

// fanoutHandler duplicates every record to all wrapped handlers.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
