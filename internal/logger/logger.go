package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/thushan/relay/internal/util"
	"github.com/thushan/relay/theme"
)

type Config struct {
	Level      string
	LogDir     string
	Theme      string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	FileOutput bool
}

const (
	DefaultLogOutputName = "relay.log"
	DefaultTimeFormat    = "2006-01-02 15:04:05"
)

type detailedKey struct{}

// WithDetailed marks records logged with the returned context as detail that
// only the log file receives, e.g. the per-request access log.
func WithDetailed(ctx context.Context) context.Context {
	return context.WithValue(ctx, detailedKey{}, true)
}

func IsDetailed(ctx context.Context) bool {
	detailed, _ := ctx.Value(detailedKey{}).(bool)
	return detailed
}

// New builds the process logger. The terminal is always a sink, the rotating
// file joins it when FileOutput is set. cleanup closes the file.
func New(cfg *Config) (*slog.Logger, func(), error) {
	level := ParseLevel(cfg.Level)

	sinks := []sink{{handler: terminalHandler(level, theme.GetTheme(cfg.Theme))}}
	cleanup := func() {}

	if cfg.FileOutput {
		rotator, err := openRotator(cfg)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sink{handler: jsonHandler(rotator, level), acceptsDetail: true})
		cleanup = func() {
			_ = rotator.Close()
		}
	}

	return slog.New(&teeHandler{sinks: sinks}), cleanup, nil
}

// ParseLevel maps a config level onto slog, anything unrecognised is info
func ParseLevel(level string) slog.Level {
	normalised := strings.ToLower(strings.TrimSpace(level))
	if normalised == "warning" {
		normalised = "warn"
	}

	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(normalised)); err != nil {
		return slog.LevelInfo
	}
	return parsed
}

func terminalHandler(level slog.Level, appTheme *theme.Theme) slog.Handler {
	if !util.ShouldUseColors() {
		return jsonHandler(os.Stdout, level)
	}

	plogger := pterm.DefaultLogger.
		WithLevel(ptermLevel(level)).
		WithWriter(os.Stdout).
		WithFormatter(pterm.LogFormatterColorful).
		WithKeyStyles(map[string]pterm.Style{
			"level": *appTheme.Info,
			"msg":   *appTheme.Info,
			"time":  *appTheme.Muted,
		})
	return pterm.NewSlogHandler(plogger)
}

func jsonHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: normaliseAttr,
	})
}

func openRotator(cfg *Config) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create log directory %s: %w", cfg.LogDir, err)
	}
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, DefaultLogOutputName),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}, nil
}

// normaliseAttr renames the time key, flattens errors to their message and
// strips the escape codes styled messages carry.
func normaliseAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.String("timestamp", a.Value.Time().Format(DefaultTimeFormat))
	}

	switch v := a.Value.Any().(type) {
	case string:
		if strings.ContainsRune(v, '\x1b') {
			return slog.String(a.Key, stripAnsiCodes(v))
		}
	case error:
		return slog.String(a.Key, v.Error())
	}
	return a
}

type sink struct {
	handler       slog.Handler
	acceptsDetail bool
}

// teeHandler fans each record out to every sink that wants it
type teeHandler struct {
	sinks []sink
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if s.handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	detailed := IsDetailed(ctx)

	var errs []error
	for _, s := range h.sinks {
		if detailed && !s.acceptsDetail {
			continue
		}
		if !s.handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := s.handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler {
		return next.WithAttrs(attrs)
	})
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler {
		return next.WithGroup(name)
	})
}

func (h *teeHandler) derive(fn func(slog.Handler) slog.Handler) *teeHandler {
	sinks := make([]sink, len(h.sinks))
	for i, s := range h.sinks {
		sinks[i] = sink{handler: fn(s.handler), acceptsDetail: s.acceptsDetail}
	}
	return &teeHandler{sinks: sinks}
}

func ptermLevel(level slog.Level) pterm.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return pterm.LogLevelDebug
	case level <= slog.LevelInfo:
		return pterm.LogLevelInfo
	case level <= slog.LevelWarn:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}
