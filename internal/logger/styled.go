package logger

import (
	"log/slog"

	"github.com/thushan/relay/internal/util"
	"github.com/thushan/relay/theme"
)

// StyledLogger is what every component logs through. The pretty implementation
// colours routes, upstreams and signals for the terminal; the plain one keeps
// messages free of escape codes for JSON/file output.
type StyledLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	InfoWithCount(msg string, count int, args ...any)
	InfoWithRoute(msg string, route string, args ...any)
	InfoWithUpstream(msg string, upstream string, args ...any)
	WarnWithUpstream(msg string, upstream string, args ...any)
	ErrorWithUpstream(msg string, upstream string, args ...any)
	InfoWithSignal(msg string, signal string, args ...any)
	InfoWithStatus(msg string, status string, args ...any)

	GetUnderlying() *slog.Logger
	WithRequestID(requestID string) StyledLogger
	With(args ...any) StyledLogger
}

// NewWithTheme builds the slog logger and wraps it with the styled logger that
// suits the current terminal.
func NewWithTheme(cfg *Config) (*slog.Logger, StyledLogger, func(), error) {
	logger, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	if util.ShouldUseColors() {
		return logger, NewPrettyStyledLogger(logger, theme.GetTheme(cfg.Theme)), cleanup, nil
	}
	return logger, NewPlainStyledLogger(logger), cleanup, nil
}
